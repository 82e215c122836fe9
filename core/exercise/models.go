package exercise

import "time"

// TaskKind discriminates the task variants. It is persisted as the `kind` field.
type TaskKind string

const (
	OneChoiceTask      TaskKind = "OneChoiceTask"
	MultipleChoiceTask TaskKind = "MultipleChoiceTask"
	TextTask           TaskKind = "TextTask"
)

func (k TaskKind) Valid() bool {
	switch k {
	case OneChoiceTask, MultipleChoiceTask, TextTask:
		return true
	default:
		return false
	}
}

// AnswerKind returns the kind of attempt answer matching tasks of kind `k`.
func (k TaskKind) AnswerKind() AnswerKind {
	switch k {
	case OneChoiceTask:
		return OneChoiceTaskAttempt
	case MultipleChoiceTask:
		return MultipleChoiceTaskAttempt
	case TextTask:
		return TextTaskAttempt
	default:
		return ""
	}
}

// AnswerKind discriminates the attempt answer variants.
type AnswerKind string

const (
	OneChoiceTaskAttempt      AnswerKind = "OneChoiceTaskAttempt"
	MultipleChoiceTaskAttempt AnswerKind = "MultipleChoiceTaskAttempt"
	TextTaskAttempt           AnswerKind = "TextTaskAttempt"
)

type TaskOption struct {
	Key  string `json:"key" bson:"key" validate:"required"`
	Text string `json:"text" bson:"text"`
}

// Task is one gradable question. Only the fields of its kind are set:
//   OneChoiceTask: Options, CorrectAnswer
//   MultipleChoiceTask: Options, CorrectAnswers, OnlyFull
//   TextTask: CorrectAnswers
type Task struct {
	ID             string       `json:"_id" bson:"_id"`
	Kind           TaskKind     `json:"kind" bson:"kind"`
	Description    string       `json:"description" bson:"description"`
	Score          float64      `json:"score" bson:"score"`
	Options        []TaskOption `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer  string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	CorrectAnswers []string     `json:"correctAnswers,omitempty" bson:"correctAnswers,omitempty"`
	OnlyFull       bool         `json:"onlyFull,omitempty" bson:"onlyFull,omitempty"`
	ExerciseRefs   []string     `json:"exerciseRefs" bson:"exerciseRefs"`
}

// WithoutSolution returns a copy of the task without its correct answers.
func (t Task) WithoutSolution() Task {
	t.CorrectAnswer = ""
	t.CorrectAnswers = nil
	return t
}

type Participant struct {
	User     string   `json:"user" bson:"user"`
	Attempts []string `json:"attempts" bson:"attempts"`
}

type Exercise struct {
	ID           string        `json:"_id" bson:"_id"`
	Name         string        `json:"name" bson:"name"`
	Available    bool          `json:"available" bson:"available"`
	Weight       float64       `json:"weight" bson:"weight"`
	Deadline     *time.Time    `json:"deadline,omitempty" bson:"deadline,omitempty"`
	Tasks        []string      `json:"tasks" bson:"tasks"`
	CourseRefs   []string      `json:"courseRefs" bson:"courseRefs"`
	Participants []Participant `json:"participants" bson:"participants"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// AddAttempt records attempt `attemptID` for participant `userID`, registering the participant if needed.
func (ex *Exercise) AddAttempt(userID, attemptID string) {
	for i := range ex.Participants {
		if ex.Participants[i].User == userID {
			ex.Participants[i].Attempts = append(ex.Participants[i].Attempts, attemptID)
			return
		}
	}
	ex.Participants = append(ex.Participants, Participant{User: userID, Attempts: []string{attemptID}})
}

// Answer is the answer to the task at the same position in the exercise.
// Value is used by one-choice and text answers, Values by multiple-choice ones.
type Answer struct {
	TaskRef string     `json:"taskRef" bson:"taskRef"`
	Kind    AnswerKind `json:"kind" bson:"kind"`
	Value   *string    `json:"value" bson:"value"`
	Values  []string   `json:"values" bson:"values"`
	Score   *float64   `json:"score" bson:"score"`
}

func newAnswer(task Task) Answer {
	ans := Answer{TaskRef: task.ID, Kind: task.Kind.AnswerKind()}
	if task.Kind == MultipleChoiceTask {
		ans.Values = []string{}
	}
	return ans
}

type Attempt struct {
	ID          string     `json:"_id" bson:"_id"`
	Respondent  string     `json:"respondent" bson:"respondent"`
	ExerciseRef string     `json:"exerciseRef" bson:"exerciseRef"`
	StartTime   time.Time  `json:"startTime" bson:"startTime"`
	EndTime     *time.Time `json:"endTime" bson:"endTime"`
	Running     bool       `json:"running" bson:"running"`
	Answers     []Answer   `json:"answers" bson:"answers"`
	Score       *float64   `json:"score" bson:"score"`
}

func (a Attempt) Finished() bool { return a.EndTime != nil }

// AttemptFilter selects attempts; empty fields match everything.
type AttemptFilter struct {
	ExerciseRef string
	Respondent  string
}

// View is an exercise as presented to one user.
type View struct {
	Exercise
	Role     Role   `json:"role"`
	TaskDocs []Task `json:"taskDocs"`
}
