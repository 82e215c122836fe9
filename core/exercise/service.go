package exercise

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("exercise not found")
	ErrTaskNotFound         = core.NewNotFoundError("task not found")
	ErrAttemptNotFound      = core.NewNotFoundError("attempt not found")
	ErrRunningAttemptExists = core.NewConflictError("there is already a running attempt for this exercise")
	ErrAttemptFinished      = core.NewConflictError("cannot update a finished attempt")
	ErrWrongAttemptData     = core.NewBadRequestError("wrong attempt data")
)

type (
	Repository interface {
		GetExercise(ctx context.Context, id string) (Exercise, error)
		SaveExercise(ctx context.Context, ex Exercise) error
		DeleteExercise(ctx context.Context, id string) error

		// GetTasks returns the tasks in the order of `ids`; ErrTaskNotFound if any is missing.
		GetTasks(ctx context.Context, ids []string) ([]Task, error)
		SaveTask(ctx context.Context, task Task) error
		DeleteTask(ctx context.Context, id string) error

		// CreateAttempt inserts a new attempt. Inserting a running attempt fails with
		// ErrRunningAttemptExists when the respondent already has one for the exercise.
		CreateAttempt(ctx context.Context, attempt Attempt) error
		GetAttempt(ctx context.Context, id string) (Attempt, error)
		// SaveAttempt replaces an attempt that is still running in the store;
		// ErrAttemptFinished if it has been finished meanwhile.
		SaveAttempt(ctx context.Context, attempt Attempt) error
		QueryAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error)
		DeleteAttemptsByExercise(ctx context.Context, exerciseID string) error
	}

	Service struct {
		repo    Repository
		tx      core.Transactor
		members MembershipProvider
		logger  core.Logger
		now     func() time.Time
	}
)

func NewService(repo Repository, tx core.Transactor, members MembershipProvider, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		members: members,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) role(ctx context.Context, ex Exercise, userID string) (Role, error) {
	m, err := svc.members.Membership(ctx, userID)
	if err != nil {
		return RoleNone, errors.Wrap(err, "resolving membership")
	}
	return ResolveRole(ex, m), nil
}

func (svc *Service) getExercise(ctx context.Context, id string) (Exercise, error) {
	ex, err := svc.repo.GetExercise(ctx, id)
	if err != nil {
		return Exercise{}, core.StorageError(err, "getting exercise")
	}
	return ex, nil
}

func (svc *Service) getAttempt(ctx context.Context, id string) (Attempt, error) {
	attempt, err := svc.repo.GetAttempt(ctx, id)
	if err != nil {
		return Attempt{}, core.StorageError(err, "getting attempt")
	}
	return attempt, nil
}

// GetExercise returns the exercise with its tasks. Students only see available exercises,
// without the correct answers.
func (svc *Service) GetExercise(ctx context.Context, exerciseID, userID string) (View, error) {
	ex, err := svc.getExercise(ctx, exerciseID)
	if err != nil {
		return View{}, err
	}
	role, err := svc.role(ctx, ex, userID)
	if err != nil {
		return View{}, err
	}
	switch {
	case role == RoleTeacher:
	case role == RoleStudent && ex.Available:
		ex.Participants = nil
	default:
		return View{}, core.NewForbiddenError("you cannot view this exercise")
	}

	tasks, err := svc.repo.GetTasks(ctx, ex.Tasks)
	if err != nil {
		return View{}, core.StorageError(err, "getting tasks")
	}
	if role != RoleTeacher {
		for i := range tasks {
			tasks[i] = tasks[i].WithoutSolution()
		}
	}
	return View{Exercise: ex, Role: role, TaskDocs: tasks}, nil
}

// NewAttempt starts an attempt of student `userID` on exercise `exerciseID`, with one empty answer per task.
func (svc *Service) NewAttempt(ctx context.Context, exerciseID, userID string) (Attempt, error) {
	var attempt Attempt
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ex, err := svc.getExercise(ctx, exerciseID)
		if err != nil {
			return err
		}
		role, err := svc.role(ctx, ex, userID)
		if err != nil {
			return err
		}
		if role != RoleStudent {
			return core.NewForbiddenError("only students of the course can attempt this exercise")
		}
		now := svc.now()
		if !ex.Available {
			return core.NewForbiddenError("this exercise is not available")
		}
		if ex.Deadline != nil && now.After(*ex.Deadline) {
			return core.NewForbiddenError("the deadline of this exercise has passed")
		}

		tasks, err := svc.repo.GetTasks(ctx, ex.Tasks)
		if err != nil {
			return core.StorageError(err, "getting tasks")
		}
		answers := make([]Answer, 0, len(tasks))
		for _, task := range tasks {
			answers = append(answers, newAnswer(task))
		}

		attempt = Attempt{
			ID:          uuid.NewString(),
			Respondent:  userID,
			ExerciseRef: ex.ID,
			StartTime:   now,
			Running:     true,
			Answers:     answers,
		}
		if err = svc.repo.CreateAttempt(ctx, attempt); err != nil {
			return core.StorageError(err, "creating attempt")
		}

		ex.AddAttempt(userID, attempt.ID)
		ex.UpdatedAt = now
		return core.StorageError(svc.repo.SaveExercise(ctx, ex), "saving exercise")
	})
	if err != nil {
		return Attempt{}, err
	}
	return attempt, nil
}

// running loads attempt `attemptID` for a mutation by `userID`.
func (svc *Service) running(ctx context.Context, attemptID, userID string) (Attempt, error) {
	attempt, err := svc.getAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if attempt.Respondent != userID {
		return Attempt{}, core.NewForbiddenError("this is not your attempt")
	}
	if attempt.Finished() {
		return Attempt{}, ErrAttemptFinished
	}
	return attempt, nil
}

// UpdateAnswers replaces the answers of a running attempt. `answers` must match the stored
// answers position by position; scores are never taken from the client.
func (svc *Service) UpdateAnswers(ctx context.Context, attemptID, userID string, answers []Answer) (Attempt, error) {
	attempt, err := svc.running(ctx, attemptID, userID)
	if err != nil {
		return Attempt{}, err
	}
	if len(answers) != len(attempt.Answers) {
		return Attempt{}, ErrWrongAttemptData
	}

	updated := make([]Answer, len(answers))
	for i, ans := range answers {
		stored := attempt.Answers[i]
		if ans.TaskRef != stored.TaskRef {
			return Attempt{}, ErrWrongAttemptData
		}
		if ans.Kind != "" && ans.Kind != stored.Kind {
			return Attempt{}, core.NewBadRequestError("answer kind does not match the task kind")
		}

		upd := Answer{TaskRef: stored.TaskRef, Kind: stored.Kind, Score: stored.Score}
		if stored.Kind == MultipleChoiceTaskAttempt {
			upd.Values = ans.Values
			if upd.Values == nil {
				upd.Values = []string{}
			}
		} else {
			upd.Value = ans.Value
		}
		updated[i] = upd
	}

	attempt.Answers = updated
	if err = svc.repo.SaveAttempt(ctx, attempt); err != nil {
		return Attempt{}, core.StorageError(err, "saving attempt")
	}
	return attempt, nil
}

// FinishAttempt scores a running attempt and seals it.
func (svc *Service) FinishAttempt(ctx context.Context, attemptID, userID string) (Attempt, error) {
	attempt, err := svc.running(ctx, attemptID, userID)
	if err != nil {
		return Attempt{}, err
	}
	ex, err := svc.getExercise(ctx, attempt.ExerciseRef)
	if err != nil {
		return Attempt{}, err
	}
	tasks, err := svc.repo.GetTasks(ctx, ex.Tasks)
	if err != nil {
		return Attempt{}, core.StorageError(err, "getting tasks")
	}

	if len(tasks) != len(attempt.Answers) {
		svc.logger.Warn("attempt answers do not match the exercise tasks", map[string]interface{}{
			"attempt": attempt.ID, "exercise": ex.ID, "tasks": len(tasks), "answers": len(attempt.Answers),
		})
	}
	total, scores := ScoreAttempt(tasks, attempt.Answers)
	for i := range attempt.Answers {
		score := scores[i]
		attempt.Answers[i].Score = &score
	}
	end := svc.now()
	attempt.EndTime = &end
	attempt.Running = false
	attempt.Score = &total

	if err = svc.repo.SaveAttempt(ctx, attempt); err != nil {
		return Attempt{}, core.StorageError(err, "saving attempt")
	}
	return attempt, nil
}

// GetAttempt returns an attempt to its respondent, or to a teacher of a course using the exercise.
func (svc *Service) GetAttempt(ctx context.Context, attemptID, userID string) (Attempt, error) {
	attempt, err := svc.getAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if attempt.Respondent == userID {
		return attempt, nil
	}

	ex, err := svc.getExercise(ctx, attempt.ExerciseRef)
	if err != nil {
		return Attempt{}, err
	}
	role, err := svc.role(ctx, ex, userID)
	if err != nil {
		return Attempt{}, err
	}
	if role != RoleTeacher {
		return Attempt{}, core.NewForbiddenError("you cannot view this attempt")
	}
	return attempt, nil
}

// ListAttempts returns every attempt of the exercise to teachers, and their own attempts to students.
func (svc *Service) ListAttempts(ctx context.Context, exerciseID, userID string) ([]Attempt, error) {
	ex, err := svc.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	role, err := svc.role(ctx, ex, userID)
	if err != nil {
		return nil, err
	}

	filter := AttemptFilter{ExerciseRef: ex.ID}
	switch role {
	case RoleTeacher:
	case RoleStudent:
		filter.Respondent = userID
	default:
		return nil, core.NewForbiddenError("you cannot view the attempts of this exercise")
	}

	attempts, err := svc.repo.QueryAttempts(ctx, filter)
	if err != nil {
		return nil, core.StorageError(err, "querying attempts")
	}
	return attempts, nil
}
