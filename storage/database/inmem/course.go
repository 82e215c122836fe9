package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	var c course.Course
	err := repo.db.view(func(s *store) error {
		found, err := s.get(CollCourses, id, &c)
		if err == nil && !found {
			return course.ErrNotFound
		}
		return err
	})
	return c, err
}

func (repo *courseRepository) SaveCourse(_ context.Context, c course.Course) error {
	return repo.db.update(func(s *store) error {
		return s.put(CollCourses, c.ID, c)
	})
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	return repo.db.update(func(s *store) error {
		if !s.del(CollCourses, id) {
			return course.ErrNotFound
		}
		return nil
	})
}

func (repo *courseRepository) QueryCoursesByMember(_ context.Context, userID string) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.db.view(func(s *store) error {
		return s.each(CollCourses, func(raw []byte) error {
			var c course.Course
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			if c.Creator == userID || core.ContainsString(c.Teachers, userID) || core.ContainsString(c.Students, userID) {
				courses = append(courses, c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetForum(_ context.Context, id string) (course.Forum, error) {
	var forum course.Forum
	err := repo.db.view(func(s *store) error {
		found, err := s.get(CollForums, id, &forum)
		if err == nil && !found {
			return course.ErrForumNotFound
		}
		return err
	})
	return forum, err
}

func (repo *courseRepository) SaveForum(_ context.Context, forum course.Forum) error {
	return repo.db.update(func(s *store) error {
		return s.put(CollForums, forum.ID, forum)
	})
}

func (repo *courseRepository) DeleteForum(_ context.Context, id string) error {
	return repo.db.update(func(s *store) error {
		if !s.del(CollForums, id) {
			return course.ErrForumNotFound
		}
		return nil
	})
}
