package pgrepos

import (
	"context"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

type exerciseRepository struct {
	db *DB
}

var _ exercise.Repository = (*exerciseRepository)(nil)

func NewExerciseRepository(db *DB) exercise.Repository {
	return &exerciseRepository{db: db}
}

func (repo *exerciseRepository) GetExercise(ctx context.Context, id string) (exercise.Exercise, error) {
	var ex exercise.Exercise
	err := repo.db.get(ctx, exercisesColl, id, &ex, exercise.ErrNotFound)
	return ex, err
}

func (repo *exerciseRepository) SaveExercise(ctx context.Context, ex exercise.Exercise) error {
	return repo.db.save(ctx, exercisesColl, ex.ID, ex)
}

func (repo *exerciseRepository) DeleteExercise(ctx context.Context, id string) error {
	return repo.db.delete(ctx, exercisesColl, id, exercise.ErrNotFound)
}

func (repo *exerciseRepository) GetTasks(ctx context.Context, ids []string) ([]exercise.Task, error) {
	if len(ids) == 0 {
		return []exercise.Task{}, nil
	}
	var found []exercise.Task
	err := repo.db.query(ctx, &found,
		"SELECT doc FROM documents WHERE collection = $1 AND id = ANY($2)",
		tasksColl, pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	byID := make(map[string]exercise.Task, len(found))
	for _, task := range found {
		byID[task.ID] = task
	}
	tasks := make([]exercise.Task, 0, len(ids))
	for _, id := range ids {
		task, ok := byID[id]
		if !ok {
			return nil, exercise.ErrTaskNotFound
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (repo *exerciseRepository) SaveTask(ctx context.Context, task exercise.Task) error {
	return repo.db.save(ctx, tasksColl, task.ID, task)
}

func (repo *exerciseRepository) DeleteTask(ctx context.Context, id string) error {
	return repo.db.delete(ctx, tasksColl, id, exercise.ErrTaskNotFound)
}

// CreateAttempt relies on the `documents_running_attempt_uidx` partial unique index.
func (repo *exerciseRepository) CreateAttempt(ctx context.Context, attempt exercise.Attempt) error {
	err := repo.db.insert(ctx, attemptsColl, attempt.ID, attempt)
	if isUniqueViolation(err) {
		return exercise.ErrRunningAttemptExists
	}
	return errors.Wrap(err, "inserting attempt")
}

func (repo *exerciseRepository) GetAttempt(ctx context.Context, id string) (exercise.Attempt, error) {
	var attempt exercise.Attempt
	err := repo.db.get(ctx, attemptsColl, id, &attempt, exercise.ErrAttemptNotFound)
	return attempt, err
}

// SaveAttempt only replaces the stored attempt while its endTime is unset.
func (repo *exerciseRepository) SaveAttempt(ctx context.Context, attempt exercise.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return errors.Wrapf(err, "encoding attempt %s", attempt.ID)
	}
	res, err := repo.db.q(ctx).ExecContext(ctx, `
		UPDATE documents SET doc = $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2 AND doc->>'endTime' IS NULL`,
		attemptsColl, attempt.ID, raw,
	)
	if err != nil {
		return errors.Wrapf(err, "saving attempt %s", attempt.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "saving attempt %s", attempt.ID)
	}
	if n > 0 {
		return nil
	}

	var stored exercise.Attempt
	if err = repo.db.get(ctx, attemptsColl, attempt.ID, &stored, exercise.ErrAttemptNotFound); err != nil {
		return err
	}
	return exercise.ErrAttemptFinished
}

func (repo *exerciseRepository) QueryAttempts(ctx context.Context, filter exercise.AttemptFilter) ([]exercise.Attempt, error) {
	attempts := make([]exercise.Attempt, 0)
	err := repo.db.query(ctx, &attempts, `
		SELECT doc FROM documents
		WHERE collection = $1
			AND ($2 = '' OR doc->>'exerciseRef' = $2)
			AND ($3 = '' OR doc->>'respondent' = $3)
		ORDER BY (doc->>'startTime')::TIMESTAMPTZ`,
		attemptsColl, filter.ExerciseRef, filter.Respondent,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	return attempts, nil
}

func (repo *exerciseRepository) DeleteAttemptsByExercise(ctx context.Context, exerciseID string) error {
	_, err := repo.db.q(ctx).ExecContext(ctx,
		"DELETE FROM documents WHERE collection = $1 AND doc->>'exerciseRef' = $2",
		attemptsColl, exerciseID,
	)
	return errors.Wrap(err, "deleting attempts")
}
