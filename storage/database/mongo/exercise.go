package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	err := repo.db.findOne(ctx, exercisesColl, id, &ex, exercise.ErrNotFound)
	return ex, err
}

func (repo *exerciseRepository) SaveExercise(ctx context.Context, ex exercise.Exercise) error {
	return repo.db.replace(ctx, exercisesColl, ex.ID, ex)
}

func (repo *exerciseRepository) DeleteExercise(ctx context.Context, id string) error {
	return repo.db.deleteOne(ctx, exercisesColl, id, exercise.ErrNotFound)
}

func (repo *exerciseRepository) GetTasks(ctx context.Context, ids []string) ([]exercise.Task, error) {
	if len(ids) == 0 {
		return []exercise.Task{}, nil
	}
	cur, err := repo.db.db.Collection(tasksColl).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	var found []exercise.Task
	if err = cur.All(ctx, &found); err != nil {
		return nil, errors.Wrap(err, "decoding tasks")
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
	return repo.db.replace(ctx, tasksColl, task.ID, task)
}

func (repo *exerciseRepository) DeleteTask(ctx context.Context, id string) error {
	return repo.db.deleteOne(ctx, tasksColl, id, exercise.ErrTaskNotFound)
}

// CreateAttempt relies on the `running_attempt` partial unique index.
func (repo *exerciseRepository) CreateAttempt(ctx context.Context, attempt exercise.Attempt) error {
	_, err := repo.db.db.Collection(attemptsColl).InsertOne(ctx, attempt)
	if mongo.IsDuplicateKeyError(err) {
		return exercise.ErrRunningAttemptExists
	}
	return errors.Wrap(err, "inserting attempt")
}

func (repo *exerciseRepository) GetAttempt(ctx context.Context, id string) (exercise.Attempt, error) {
	var attempt exercise.Attempt
	err := repo.db.findOne(ctx, attemptsColl, id, &attempt, exercise.ErrAttemptNotFound)
	return attempt, err
}

// SaveAttempt only replaces the stored attempt while its endTime is unset.
func (repo *exerciseRepository) SaveAttempt(ctx context.Context, attempt exercise.Attempt) error {
	coll := repo.db.db.Collection(attemptsColl)
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": attempt.ID, "endTime": nil}, attempt)
	if err != nil {
		return errors.Wrapf(err, "saving attempt %s", attempt.ID)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": attempt.ID})
	if err != nil {
		return errors.Wrapf(err, "counting attempt %s", attempt.ID)
	}
	if n == 0 {
		return exercise.ErrAttemptNotFound
	}
	return exercise.ErrAttemptFinished
}

func (repo *exerciseRepository) QueryAttempts(ctx context.Context, filter exercise.AttemptFilter) ([]exercise.Attempt, error) {
	query := bson.M{}
	if filter.ExerciseRef != "" {
		query["exerciseRef"] = filter.ExerciseRef
	}
	if filter.Respondent != "" {
		query["respondent"] = filter.Respondent
	}
	cur, err := repo.db.db.Collection(attemptsColl).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]exercise.Attempt, 0)
	if err = cur.All(ctx, &attempts); err != nil {
		return nil, errors.Wrap(err, "decoding attempts")
	}
	return attempts, nil
}

func (repo *exerciseRepository) DeleteAttemptsByExercise(ctx context.Context, exerciseID string) error {
	_, err := repo.db.db.Collection(attemptsColl).DeleteMany(ctx, bson.M{"exerciseRef": exerciseID})
	return errors.Wrap(err, "deleting attempts")
}
