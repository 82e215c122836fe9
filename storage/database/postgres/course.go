package pgrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var c course.Course
	err := repo.db.get(ctx, coursesColl, id, &c, course.ErrNotFound)
	return c, err
}

func (repo *courseRepository) SaveCourse(ctx context.Context, c course.Course) error {
	return repo.db.save(ctx, coursesColl, c.ID, c)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	return repo.db.delete(ctx, coursesColl, id, course.ErrNotFound)
}

func (repo *courseRepository) QueryCoursesByMember(ctx context.Context, userID string) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.db.query(ctx, &courses, `
		SELECT doc FROM documents
		WHERE collection = $1
			AND (doc->>'creator' = $2 OR doc->'teachers' ? $2 OR doc->'students' ? $2)
		ORDER BY doc->>'createdAt'`,
		coursesColl, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *courseRepository) GetForum(ctx context.Context, id string) (course.Forum, error) {
	var forum course.Forum
	err := repo.db.get(ctx, forumsColl, id, &forum, course.ErrForumNotFound)
	return forum, err
}

func (repo *courseRepository) SaveForum(ctx context.Context, forum course.Forum) error {
	return repo.db.save(ctx, forumsColl, forum.ID, forum)
}

func (repo *courseRepository) DeleteForum(ctx context.Context, id string) error {
	return repo.db.delete(ctx, forumsColl, id, course.ErrForumNotFound)
}
