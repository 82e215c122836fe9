package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

type exerciseRepository struct {
	db *DB
}

var _ exercise.Repository = (*exerciseRepository)(nil)

func NewExerciseRepository(db *DB) exercise.Repository {
	return &exerciseRepository{db: db}
}

func (repo *exerciseRepository) GetExercise(_ context.Context, id string) (exercise.Exercise, error) {
	var ex exercise.Exercise
	err := repo.db.view(func(s *store) error {
		found, err := s.get(CollExercises, id, &ex)
		if err == nil && !found {
			return exercise.ErrNotFound
		}
		return err
	})
	return ex, err
}

func (repo *exerciseRepository) SaveExercise(_ context.Context, ex exercise.Exercise) error {
	return repo.db.update(func(s *store) error {
		return s.put(CollExercises, ex.ID, ex)
	})
}

func (repo *exerciseRepository) DeleteExercise(_ context.Context, id string) error {
	return repo.db.update(func(s *store) error {
		if !s.del(CollExercises, id) {
			return exercise.ErrNotFound
		}
		return nil
	})
}

func (repo *exerciseRepository) GetTasks(_ context.Context, ids []string) ([]exercise.Task, error) {
	tasks := make([]exercise.Task, 0, len(ids))
	err := repo.db.view(func(s *store) error {
		for _, id := range ids {
			var task exercise.Task
			found, err := s.get(CollTasks, id, &task)
			if err != nil {
				return err
			}
			if !found {
				return exercise.ErrTaskNotFound
			}
			tasks = append(tasks, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo *exerciseRepository) SaveTask(_ context.Context, task exercise.Task) error {
	return repo.db.update(func(s *store) error {
		return s.put(CollTasks, task.ID, task)
	})
}

func (repo *exerciseRepository) DeleteTask(_ context.Context, id string) error {
	return repo.db.update(func(s *store) error {
		if !s.del(CollTasks, id) {
			return exercise.ErrTaskNotFound
		}
		return nil
	})
}

// CreateAttempt checks for a running attempt and inserts under the same write lock.
func (repo *exerciseRepository) CreateAttempt(_ context.Context, attempt exercise.Attempt) error {
	return repo.db.update(func(s *store) error {
		if attempt.Running {
			err := s.each(CollAttempts, func(raw []byte) error {
				var other exercise.Attempt
				if err := json.Unmarshal(raw, &other); err != nil {
					return err
				}
				if other.Running && other.Respondent == attempt.Respondent && other.ExerciseRef == attempt.ExerciseRef {
					return exercise.ErrRunningAttemptExists
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return s.put(CollAttempts, attempt.ID, attempt)
	})
}

func (repo *exerciseRepository) GetAttempt(_ context.Context, id string) (exercise.Attempt, error) {
	var attempt exercise.Attempt
	err := repo.db.view(func(s *store) error {
		found, err := s.get(CollAttempts, id, &attempt)
		if err == nil && !found {
			return exercise.ErrAttemptNotFound
		}
		return err
	})
	return attempt, err
}

func (repo *exerciseRepository) SaveAttempt(_ context.Context, attempt exercise.Attempt) error {
	return repo.db.update(func(s *store) error {
		var stored exercise.Attempt
		found, err := s.get(CollAttempts, attempt.ID, &stored)
		switch {
		case err != nil:
			return err
		case !found:
			return exercise.ErrAttemptNotFound
		case stored.Finished():
			return exercise.ErrAttemptFinished
		}
		return s.put(CollAttempts, attempt.ID, attempt)
	})
}

func (repo *exerciseRepository) QueryAttempts(_ context.Context, filter exercise.AttemptFilter) ([]exercise.Attempt, error) {
	attempts := make([]exercise.Attempt, 0)
	err := repo.db.view(func(s *store) error {
		return s.each(CollAttempts, func(raw []byte) error {
			var attempt exercise.Attempt
			if err := json.Unmarshal(raw, &attempt); err != nil {
				return err
			}
			if matchAttempt(attempt, filter) {
				attempts = append(attempts, attempt)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].StartTime.Before(attempts[j].StartTime) })
	return attempts, nil
}

func (repo *exerciseRepository) DeleteAttemptsByExercise(_ context.Context, exerciseID string) error {
	return repo.db.update(func(s *store) error {
		var ids []string
		err := s.each(CollAttempts, func(raw []byte) error {
			var attempt exercise.Attempt
			if err := json.Unmarshal(raw, &attempt); err != nil {
				return err
			}
			if attempt.ExerciseRef == exerciseID {
				ids = append(ids, attempt.ID)
			}
			return nil
		})
		for _, id := range ids {
			s.del(CollAttempts, id)
		}
		return err
	})
}

func matchAttempt(attempt exercise.Attempt, filter exercise.AttemptFilter) bool {
	if filter.ExerciseRef != "" && attempt.ExerciseRef != filter.ExerciseRef {
		return false
	}
	return filter.Respondent == "" || attempt.Respondent == filter.Respondent
}
