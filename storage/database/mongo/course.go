package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	err := repo.db.findOne(ctx, coursesColl, id, &c, course.ErrNotFound)
	return c, err
}

func (repo *courseRepository) SaveCourse(ctx context.Context, c course.Course) error {
	return repo.db.replace(ctx, coursesColl, c.ID, c)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	return repo.db.deleteOne(ctx, coursesColl, id, course.ErrNotFound)
}

func (repo *courseRepository) QueryCoursesByMember(ctx context.Context, userID string) ([]course.Course, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"creator": userID},
		bson.M{"teachers": userID},
		bson.M{"students": userID},
	}}
	cur, err := repo.db.db.Collection(coursesColl).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0)
	if err = cur.All(ctx, &courses); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	return courses, nil
}

func (repo *courseRepository) GetForum(ctx context.Context, id string) (course.Forum, error) {
	var forum course.Forum
	err := repo.db.findOne(ctx, forumsColl, id, &forum, course.ErrForumNotFound)
	return forum, err
}

func (repo *courseRepository) SaveForum(ctx context.Context, forum course.Forum) error {
	return repo.db.replace(ctx, forumsColl, forum.ID, forum)
}

func (repo *courseRepository) DeleteForum(ctx context.Context, id string) error {
	return repo.db.deleteOne(ctx, forumsColl, id, course.ErrForumNotFound)
}
