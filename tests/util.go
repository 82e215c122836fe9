package testutil

import (
	"context"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/assets"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	emailsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/email"
	inmemdb "github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database/inmem"
)

// Config returns the app configuration used by tests, without reading the environment.
func Config() *core.Config {
	return &core.Config{
		Env:              "TEST",
		AppName:          "mmLearn",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "mmLearn", Address: "noreply@localhost"},
		JWTExpiration:    time.Hour,
		Database:         core.DatabaseConfig{Engine: "memory"},
		Blob:             core.BlobConfig{Bucket: "uploads", RetrySchedule: "@every 1m", MaxRetries: 2, RequestTimeout: time.Second},
	}
}

// Logger records the logged messages.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log(msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log(msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log(msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log(msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log(msg) }

// Blobs records the scheduled blob deletions.
type Blobs struct {
	mu  sync.Mutex
	IDs []string
}

func (b *Blobs) Schedule(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.IDs = append(b.IDs, ids...)
}

func (b *Blobs) Scheduled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.IDs...)
}

// Env wires the services over an in-memory store.
type Env struct {
	DB           *inmemdb.DB
	UserRepo     user.Repository
	CourseRepo   course.Repository
	ExerciseRepo exercise.Repository

	Users     *user.Service
	Courses   *course.Service
	Exercises *exercise.Service

	Mail   *emailsvc.ConsoleServiceMock
	Blobs  *Blobs
	Logger *Logger
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	conf := Config()
	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)

	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates, assets.EmailTemplatesDir, conf)
	if err != nil {
		t.Fatalf("parsing email templates: %v", err)
	}

	env := &Env{DB: inmemdb.Open(), Blobs: &Blobs{}, Logger: &Logger{}}
	env.UserRepo = inmemdb.NewUserRepository(env.DB)
	env.CourseRepo = inmemdb.NewCourseRepository(env.DB)
	env.ExerciseRepo = inmemdb.NewExerciseRepository(env.DB)
	env.Mail = emailsvc.NewConsoleServiceMock(conf, tmpls, env.Logger)

	env.Users = user.NewService(env.UserRepo, env.Mail, validate)
	env.Courses = course.NewService(env.CourseRepo, env.ExerciseRepo, env.Users, env.DB, env.Blobs, validate, translator, env.Logger)
	env.Exercises = exercise.NewService(env.ExerciseRepo, env.DB, env.Courses, env.Logger)
	return env
}

func CreateUser(t *testing.T, repo user.Repository, name, email string) user.User {
	t.Helper()
	usr := user.User{
		ID:            name + "-id",
		Name:          name,
		Email:         email,
		Notifications: []user.Notification{},
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.SaveUser(context.Background(), usr); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateCourse saves an open course created by `creator` with the given students.
func CreateCourse(t *testing.T, repo course.Repository, id, creator string, students ...string) course.Course {
	t.Helper()
	now := time.Now().UTC()
	c := course.Course{
		ID:              id,
		Name:            "Course " + id,
		About:           "about " + id,
		Type:            course.TypeOpen,
		Creator:         creator,
		Teachers:        []string{creator},
		InvitedTeachers: []string{},
		Students:        append([]string{}, students...),
		Subscribers:     []course.Subscriber{},
		Sections:        []course.Section{},
		Exercises:       []string{},
		Updates:         []course.Update{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repo.SaveCourse(context.Background(), c); err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

// CreateExercise saves an exercise used by `courseIDs` with `tasks`, and links it to each course.
func CreateExercise(
	t *testing.T,
	env *Env,
	id string,
	available bool,
	courseIDs []string,
	tasks ...exercise.Task,
) exercise.Exercise {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	ex := exercise.Exercise{
		ID:           id,
		Name:         "Exercise " + id,
		Available:    available,
		Weight:       1,
		Tasks:        []string{},
		CourseRefs:   append([]string{}, courseIDs...),
		Participants: []exercise.Participant{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, task := range tasks {
		task.ExerciseRefs = core.AddString(task.ExerciseRefs, id)
		if err := env.ExerciseRepo.SaveTask(ctx, task); err != nil {
			t.Fatalf("createExercise() failed: %v", err)
		}
		ex.Tasks = append(ex.Tasks, task.ID)
	}
	if err := env.ExerciseRepo.SaveExercise(ctx, ex); err != nil {
		t.Fatalf("createExercise() failed: %v", err)
	}

	for _, courseID := range courseIDs {
		c, err := env.CourseRepo.GetCourse(ctx, courseID)
		if err != nil {
			t.Fatalf("createExercise() failed: %v", err)
		}
		c.Exercises = append(c.Exercises, id)
		if err = env.CourseRepo.SaveCourse(ctx, c); err != nil {
			t.Fatalf("createExercise() failed: %v", err)
		}
	}
	return ex
}

func StrPtr(s string) *string     { return &s }
func BoolPtr(b bool) *bool        { return &b }
func FloatPtr(f float64) *float64 { return &f }
