package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
	inmemdb "github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database/inmem"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/tests"
)

const (
	creator = "creator-id"
	teacher = "teacher-id"
	student = "student-id"

	courseA = "c0000000-0000-0000-0000-00000000000a"
	courseB = "c0000000-0000-0000-0000-00000000000b"
)

var (
	ctx     = context.Background()
	errBoom = errors.New("boom")
)

func setup(t *testing.T) *testutil.Env {
	env := testutil.NewEnv(t)
	for _, name := range []string{"creator", "teacher", "student"} {
		testutil.CreateUser(t, env.UserRepo, name, name+"@example.com")
	}
	c := testutil.CreateCourse(t, env.CourseRepo, courseA, creator, student)
	c.Teachers = append(c.Teachers, teacher)
	require.NoError(t, env.CourseRepo.SaveCourse(ctx, c))
	return env
}

// populate fills course A with one section of four entries and two exercises.
func populate(t *testing.T, env *testutil.Env) course.MergeResult {
	res, err := env.Courses.Merge(ctx, courseA, creator, course.EditCourse{
		Sections: []course.EditSection{{
			Name: "Week 1",
			Entries: []course.EditEntry{
				{Kind: course.EntryText, Name: "Welcome", Text: "hi"},
				{Kind: course.EntryForum, Name: "Q&A", Forum: &course.EditForum{Description: "questions"}},
				{Kind: course.EntryFile, Name: "Slides", FileRef: "blob-1", FileName: "slides.pdf"},
				{Kind: course.EntryFile, Name: "Answers", Access: course.AccessTeachers, FileRef: "blob-2", FileName: "answers.pdf"},
			},
		}},
		Exercises: []course.EditExercise{
			{
				Name:      "Quiz 1",
				Available: testutil.BoolPtr(true),
				Weight:    testutil.FloatPtr(1),
				Tasks: []course.EditTask{
					{
						Kind:          exercise.OneChoiceTask,
						Description:   "2 + 2",
						Score:         testutil.FloatPtr(5),
						Options:       []exercise.TaskOption{{Key: "1", Text: "3"}, {Key: "2", Text: "4"}},
						CorrectAnswer: testutil.StrPtr("2"),
					},
					{
						Kind:           exercise.TextTask,
						Description:    "Capital of France",
						Score:          testutil.FloatPtr(2),
						CorrectAnswers: []string{"Paris"},
					},
				},
			},
			{Name: "Draft", Available: testutil.BoolPtr(false)},
		},
	})
	require.NoError(t, err)
	return res
}

// editOf returns the edit resubmitting course `courseID` unchanged.
func editOf(t *testing.T, env *testutil.Env, courseID string) course.EditCourse {
	c, err := env.CourseRepo.GetCourse(ctx, courseID)
	require.NoError(t, err)

	edit := course.EditCourse{Sections: []course.EditSection{}, Exercises: []course.EditExercise{}}
	for _, s := range c.Sections {
		es := course.EditSection{Name: s.Name, Description: s.Description, Entries: []course.EditEntry{}}
		for _, e := range s.Entries {
			es.Entries = append(es.Entries, course.EditEntry{
				ID:       e.ID,
				Kind:     e.Kind,
				Name:     e.Name,
				Access:   e.Access,
				Text:     e.Text,
				FileRef:  e.FileRef,
				FileName: e.FileName,
			})
		}
		edit.Sections = append(edit.Sections, es)
	}

	for _, id := range c.Exercises {
		ex, err := env.ExerciseRepo.GetExercise(ctx, id)
		require.NoError(t, err)
		tasks, err := env.ExerciseRepo.GetTasks(ctx, ex.Tasks)
		require.NoError(t, err)

		ee := course.EditExercise{
			ID:        ex.ID,
			Name:      ex.Name,
			Available: testutil.BoolPtr(ex.Available),
			Weight:    testutil.FloatPtr(ex.Weight),
			Tasks:     []course.EditTask{},
		}
		for _, task := range tasks {
			ee.Tasks = append(ee.Tasks, course.EditTask{
				ID:             task.ID,
				Kind:           task.Kind,
				Description:    task.Description,
				Score:          testutil.FloatPtr(task.Score),
				Options:        task.Options,
				CorrectAnswer:  testutil.StrPtr(task.CorrectAnswer),
				CorrectAnswers: task.CorrectAnswers,
				OnlyFull:       testutil.BoolPtr(task.OnlyFull),
			})
		}
		edit.Exercises = append(edit.Exercises, ee)
	}
	return edit
}

type courseState struct {
	Course    course.Course
	Exercises []exercise.Exercise
	Tasks     []exercise.Task
	Forums    []course.Forum
}

// loadState reads course `courseID` with every document it references, without the update timestamps.
func loadState(t *testing.T, env *testutil.Env, courseID string) courseState {
	var st courseState
	c, err := env.CourseRepo.GetCourse(ctx, courseID)
	require.NoError(t, err)
	c.UpdatedAt = time.Time{}
	st.Course = c

	for _, e := range c.Entries() {
		if e.ForumRef != "" {
			forum, err := env.CourseRepo.GetForum(ctx, e.ForumRef)
			require.NoError(t, err)
			st.Forums = append(st.Forums, forum)
		}
	}
	for _, id := range c.Exercises {
		ex, err := env.ExerciseRepo.GetExercise(ctx, id)
		require.NoError(t, err)
		tasks, err := env.ExerciseRepo.GetTasks(ctx, ex.Tasks)
		require.NoError(t, err)
		ex.UpdatedAt = time.Time{}
		st.Exercises = append(st.Exercises, ex)
		st.Tasks = append(st.Tasks, tasks...)
	}
	return st
}

func entryByName(t *testing.T, c course.Course, name string) course.Entry {
	for _, e := range c.Entries() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("entry %q not found", name)
	return course.Entry{}
}

func removeEntry(edit *course.EditCourse, name string) {
	for i, s := range edit.Sections {
		entries := make([]course.EditEntry, 0, len(s.Entries))
		for _, e := range s.Entries {
			if e.Name != name {
				entries = append(entries, e)
			}
		}
		edit.Sections[i].Entries = entries
	}
}

func removeExercise(edit *course.EditCourse, name string) {
	exercises := make([]course.EditExercise, 0, len(edit.Exercises))
	for _, ee := range edit.Exercises {
		if ee.Name != name {
			exercises = append(exercises, ee)
		}
	}
	edit.Exercises = exercises
}

func TestService_Merge_Create(t *testing.T) {
	env := setup(t)
	res := populate(t, env)

	assert.Equal(t, []course.Update{
		{
			Created: res.News[0].Created,
			Kind:    course.UpdateNewEntries,
			Entries: []course.Summary{{Name: "Welcome", Kind: "text"}, {Name: "Q&A", Kind: "forum"}, {Name: "Slides", Kind: "file"}},
		},
		{
			Created:   res.News[1].Created,
			Kind:      course.UpdateNewExercises,
			Exercises: []course.Summary{{Name: "Quiz 1", Kind: "exercise"}},
		},
	}, res.News)
	assert.True(t, res.Cascade.Empty())

	st := loadState(t, env, courseA)
	require.Len(t, st.Course.Sections, 1)
	require.Len(t, st.Course.Sections[0].Entries, 4)
	assert.Len(t, st.Course.Updates, 2)
	for _, e := range st.Course.Entries() {
		assert.NotEmpty(t, e.ID)
	}
	assert.Equal(t, course.AccessAll, entryByName(t, st.Course, "Welcome").Access)

	require.Len(t, st.Forums, 1)
	assert.Equal(t, "Q&A", st.Forums[0].Name)
	assert.Equal(t, "questions", st.Forums[0].Description)
	assert.Equal(t, []string{courseA}, st.Forums[0].CourseRefs)

	require.Len(t, st.Exercises, 2)
	quiz := st.Exercises[0]
	assert.Equal(t, "Quiz 1", quiz.Name)
	assert.Equal(t, []string{courseA}, quiz.CourseRefs)
	require.Len(t, st.Tasks, 2)
	for _, task := range st.Tasks {
		assert.Equal(t, []string{quiz.ID}, task.ExerciseRefs)
	}
	assert.Equal(t, "2", st.Tasks[0].CorrectAnswer)
	assert.Empty(t, st.Tasks[1].Options)
}

func TestService_Merge_NoOp(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)

	res, err := env.Courses.Merge(ctx, courseA, teacher, editOf(t, env, courseA))
	require.NoError(t, err)
	assert.Empty(t, res.News)
	assert.True(t, res.Cascade.Empty())
	assert.Equal(t, before, loadState(t, env, courseA))
	assert.Empty(t, env.Blobs.Scheduled())
}

func TestService_Merge_Untouched(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)

	res, err := env.Courses.Merge(ctx, courseA, creator, course.EditCourse{})
	require.NoError(t, err)
	assert.Empty(t, res.News)
	assert.Equal(t, before, loadState(t, env, courseA))
}

func TestService_Merge_RemoveContent(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)
	forumID := before.Forums[0].ID
	quiz := before.Exercises[0]

	edit := editOf(t, env, courseA)
	removeEntry(&edit, "Q&A")
	removeEntry(&edit, "Slides")
	removeExercise(&edit, "Quiz 1")

	res, err := env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)

	require.Len(t, res.News, 2)
	assert.Equal(t, course.UpdateDeletedEntries, res.News[0].Kind)
	assert.Equal(t, []course.Summary{{Name: "Q&A", Kind: "forum"}, {Name: "Slides", Kind: "file"}}, res.News[0].Entries)
	assert.Equal(t, course.UpdateDeletedExercises, res.News[1].Kind)
	assert.Equal(t, []course.Summary{{Name: "Quiz 1", Kind: "exercise"}}, res.News[1].Exercises)

	assert.Equal(t, []string{forumID}, res.Cascade.Forums)
	assert.Equal(t, []string{quiz.ID}, res.Cascade.Exercises)
	assert.ElementsMatch(t, quiz.Tasks, res.Cascade.Tasks)
	assert.Equal(t, []string{"blob-1"}, res.Cascade.Blobs)
	assert.Equal(t, []string{"blob-1"}, env.Blobs.Scheduled())

	_, err = env.CourseRepo.GetForum(ctx, forumID)
	assert.True(t, core.IsNotFound(err))
	_, err = env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = env.ExerciseRepo.GetTasks(ctx, quiz.Tasks[:1])
	assert.True(t, core.IsNotFound(err))

	st := loadState(t, env, courseA)
	assert.Len(t, st.Course.Entries(), 2)
	assert.Len(t, st.Exercises, 1)
}

func TestService_Merge_SharedExercise(t *testing.T) {
	env := setup(t)
	populate(t, env)
	quiz := loadState(t, env, courseA).Exercises[0]
	testutil.CreateCourse(t, env.CourseRepo, courseB, creator)

	// B takes the exercise from the bank
	res, err := env.Courses.Merge(ctx, courseB, creator, course.EditCourse{
		Exercises: []course.EditExercise{{ID: quiz.ID}},
	})
	require.NoError(t, err)
	require.Len(t, res.News, 1)
	assert.Equal(t, course.UpdateNewExercises, res.News[0].Kind)

	shared, err := env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseA, courseB}, shared.CourseRefs)

	attempt, err := env.Exercises.NewAttempt(ctx, quiz.ID, student)
	require.NoError(t, err)

	// A lets it go: it survives with its attempts
	edit := editOf(t, env, courseA)
	removeExercise(&edit, "Quiz 1")
	res, err = env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)
	assert.Empty(t, res.Cascade.Exercises)

	shared, err = env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseB}, shared.CourseRefs)
	_, err = env.ExerciseRepo.GetAttempt(ctx, attempt.ID)
	assert.NoError(t, err)

	// B lets it go: it is deleted with its tasks and attempts
	res, err = env.Courses.Merge(ctx, courseB, creator, course.EditCourse{Exercises: []course.EditExercise{}})
	require.NoError(t, err)
	assert.Equal(t, []string{quiz.ID}, res.Cascade.Exercises)
	assert.ElementsMatch(t, quiz.Tasks, res.Cascade.Tasks)

	_, err = env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = env.ExerciseRepo.GetAttempt(ctx, attempt.ID)
	assert.True(t, core.IsNotFound(err))
	attempts, err := env.ExerciseRepo.QueryAttempts(ctx, exercise.AttemptFilter{ExerciseRef: quiz.ID})
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestService_Merge_SharedTask(t *testing.T) {
	env := setup(t)
	populate(t, env)
	quiz := loadState(t, env, courseA).Exercises[0]

	edit := editOf(t, env, courseA)
	edit.Exercises = append(edit.Exercises, course.EditExercise{
		Name:  "Quiz 2",
		Tasks: []course.EditTask{edit.Exercises[0].Tasks[0]},
	})
	_, err := env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)

	st := loadState(t, env, courseA)
	require.Len(t, st.Exercises, 3)
	quiz2 := st.Exercises[2]
	assert.Equal(t, []string{quiz.Tasks[0]}, quiz2.Tasks)

	edit = editOf(t, env, courseA)
	removeExercise(&edit, "Quiz 1")
	res, err := env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)
	assert.Equal(t, []string{quiz.Tasks[1]}, res.Cascade.Tasks)

	tasks, err := env.ExerciseRepo.GetTasks(ctx, quiz.Tasks[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{quiz2.ID}, tasks[0].ExerciseRefs)
}

func TestService_Merge_RemoveTask(t *testing.T) {
	env := setup(t)
	populate(t, env)
	quiz := loadState(t, env, courseA).Exercises[0]

	edit := editOf(t, env, courseA)
	edit.Exercises[0].Tasks = edit.Exercises[0].Tasks[1:]
	res, err := env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)
	assert.Equal(t, []string{quiz.Tasks[0]}, res.Cascade.Tasks)
	assert.Empty(t, res.News)

	ex, err := env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.Tasks[1:], ex.Tasks)
}

func TestService_Merge_SharedForum(t *testing.T) {
	env := setup(t)
	populate(t, env)
	forumID := loadState(t, env, courseA).Forums[0].ID
	testutil.CreateCourse(t, env.CourseRepo, courseB, creator)

	_, err := env.Courses.Merge(ctx, courseB, creator, course.EditCourse{
		Sections: []course.EditSection{{
			Name:    "Shared",
			Entries: []course.EditEntry{{Kind: course.EntryForum, Name: "Q&A", ForumRef: forumID}},
		}},
	})
	require.NoError(t, err)

	forum, err := env.CourseRepo.GetForum(ctx, forumID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseA, courseB}, forum.CourseRefs)

	edit := editOf(t, env, courseA)
	removeEntry(&edit, "Q&A")
	res, err := env.Courses.Merge(ctx, courseA, creator, edit)
	require.NoError(t, err)
	assert.Empty(t, res.Cascade.Forums)

	forum, err = env.CourseRepo.GetForum(ctx, forumID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseB}, forum.CourseRefs)

	res, err = env.Courses.Merge(ctx, courseB, creator, course.EditCourse{Sections: []course.EditSection{}})
	require.NoError(t, err)
	assert.Equal(t, []string{forumID}, res.Cascade.Forums)
	_, err = env.CourseRepo.GetForum(ctx, forumID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Merge_ShareFromForeignCourse(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)
	quiz := before.Exercises[0]
	forumID := before.Forums[0].ID

	outsider := testutil.CreateUser(t, env.UserRepo, "outsider", "outsider@example.com")
	testutil.CreateCourse(t, env.CourseRepo, courseB, outsider.ID)

	tests := []struct {
		name string
		edit course.EditCourse
	}{
		{
			name: "exercise",
			edit: course.EditCourse{Exercises: []course.EditExercise{{ID: quiz.ID, Name: "renamed"}}},
		},
		{
			name: "forum",
			edit: course.EditCourse{Sections: []course.EditSection{{
				Name:    "Shared",
				Entries: []course.EditEntry{{Kind: course.EntryForum, Name: "Q&A", ForumRef: forumID}},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Courses.Merge(ctx, courseB, outsider.ID, tt.edit)
			assert.True(t, core.IsForbidden(err), "err = %v", err)
		})
	}

	assert.Equal(t, before, loadState(t, env, courseA))

	ex, err := env.ExerciseRepo.GetExercise(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseA}, ex.CourseRefs)
	_, err = env.Exercises.GetExercise(ctx, quiz.ID, outsider.ID)
	assert.True(t, core.IsForbidden(err), "err = %v", err)
	_, err = env.Exercises.ListAttempts(ctx, quiz.ID, outsider.ID)
	assert.True(t, core.IsForbidden(err), "err = %v", err)

	// a teacher of the source course may share it
	c, err := env.CourseRepo.GetCourse(ctx, courseB)
	require.NoError(t, err)
	c.Teachers = append(c.Teachers, teacher)
	require.NoError(t, env.CourseRepo.SaveCourse(ctx, c))
	_, err = env.Courses.Merge(ctx, courseB, teacher, tests[0].edit)
	require.NoError(t, err)
}

func TestService_Merge_EditContent(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)

	edit := editOf(t, env, courseA)
	for i, e := range edit.Sections[0].Entries {
		switch e.Name {
		case "Slides":
			edit.Sections[0].Entries[i].FileRef = "blob-3"
		case "Q&A":
			edit.Sections[0].Entries[i].Forum = &course.EditForum{Name: "Questions", TeachersOnly: testutil.BoolPtr(true)}
		case "Welcome":
			edit.Sections[0].Entries[i].Text = "hello"
		}
	}
	edit.Exercises[0].Tasks[0].Score = testutil.FloatPtr(10)

	res, err := env.Courses.Merge(ctx, courseA, teacher, edit)
	require.NoError(t, err)
	assert.Empty(t, res.News)
	assert.Equal(t, []string{"blob-1"}, env.Blobs.Scheduled())

	st := loadState(t, env, courseA)
	assert.Equal(t, "blob-3", entryByName(t, st.Course, "Slides").FileRef)
	assert.Equal(t, "slides.pdf", entryByName(t, st.Course, "Slides").FileName)
	assert.Equal(t, "hello", entryByName(t, st.Course, "Welcome").Text)
	assert.Equal(t, entryByName(t, before.Course, "Welcome").ID, entryByName(t, st.Course, "Welcome").ID)
	assert.Equal(t, "Questions", st.Forums[0].Name)
	assert.True(t, st.Forums[0].TeachersOnly)
	assert.Equal(t, 10.0, st.Tasks[0].Score)
}

func TestService_Merge_BasicFields(t *testing.T) {
	env := setup(t)

	res, err := env.Courses.Merge(ctx, courseA, creator, course.EditCourse{
		Name:     testutil.StrPtr("  Algebra  "),
		Password: testutil.StrPtr("s3cret"),
		Type:     func() *course.Type { tp := course.TypePublic; return &tp }(),
	})
	require.NoError(t, err)
	require.Len(t, res.News, 1)
	assert.Equal(t, course.UpdateNewInfo, res.News[0].Kind)
	assert.Equal(t, "Course "+courseA, res.News[0].OldName)
	assert.Equal(t, "Algebra", res.News[0].NewName)
	assert.Equal(t, "about "+courseA, res.News[0].NewAbout)

	c, err := env.CourseRepo.GetCourse(ctx, courseA)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", c.Name)
	assert.Equal(t, course.TypePublic, c.Type)
	assert.True(t, c.HasPassword)
	assert.NoError(t, c.CheckPassword("s3cret"))

	_, err = env.Courses.Merge(ctx, courseA, creator, course.EditCourse{HasPassword: testutil.BoolPtr(false)})
	require.NoError(t, err)
	c, err = env.CourseRepo.GetCourse(ctx, courseA)
	require.NoError(t, err)
	assert.False(t, c.HasPassword)
	assert.Empty(t, c.Password)
}

func TestService_Merge_Atomic(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)

	edit := editOf(t, env, courseA)
	removeEntry(&edit, "Q&A")
	removeEntry(&edit, "Slides")
	removeExercise(&edit, "Quiz 1")
	edit.Exercises = append(edit.Exercises, course.EditExercise{
		Name:  "Quiz 3",
		Tasks: []course.EditTask{{Kind: exercise.TextTask, CorrectAnswers: []string{"x"}}},
	})

	env.DB.FailSaves(inmemdb.CollTasks, errBoom)
	_, err := env.Courses.Merge(ctx, courseA, creator, edit)
	env.DB.FailSaves(inmemdb.CollTasks, nil)

	require.Error(t, err)
	assert.True(t, core.IsStorage(err))
	assert.Equal(t, before, loadState(t, env, courseA))
	assert.Empty(t, env.Blobs.Scheduled())
}

func TestService_Merge_Errors(t *testing.T) {
	env := setup(t)
	populate(t, env)
	before := loadState(t, env, courseA)

	tests := []struct {
		name    string
		userID  string
		edit    func() course.EditCourse
		wantErr func(error) bool
	}{
		{
			name:    "student",
			userID:  student,
			edit:    func() course.EditCourse { return editOf(t, env, courseA) },
			wantErr: core.IsForbidden,
		},
		{
			name:    "not enrolled",
			userID:  "stranger-id",
			edit:    func() course.EditCourse { return course.EditCourse{} },
			wantErr: core.IsForbidden,
		},
		{
			name:   "unknown entry",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Sections: []course.EditSection{{
					Entries: []course.EditEntry{{ID: "abcdef12", Kind: course.EntryText, Name: "x"}},
				}}}
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "duplicate entry",
			userID: creator,
			edit: func() course.EditCourse {
				edit := editOf(t, env, courseA)
				edit.Sections = append(edit.Sections, course.EditSection{
					Name:    "Copy",
					Entries: []course.EditEntry{edit.Sections[0].Entries[0]},
				})
				return edit
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "entry kind change",
			userID: creator,
			edit: func() course.EditCourse {
				edit := editOf(t, env, courseA)
				edit.Sections[0].Entries[0].Kind = course.EntryFile
				return edit
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "invalid entry kind",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Sections: []course.EditSection{{
					Entries: []course.EditEntry{{Kind: "video", Name: "x"}},
				}}}
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "invalid id",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Exercises: []course.EditExercise{{ID: "not an id!"}}}
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "new exercise without name",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Exercises: []course.EditExercise{{Weight: testutil.FloatPtr(1)}}}
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "unknown bank exercise",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Exercises: []course.EditExercise{{ID: "deadbeef"}}}
			},
			wantErr: core.IsNotFound,
		},
		{
			name:   "task kind change",
			userID: creator,
			edit: func() course.EditCourse {
				edit := editOf(t, env, courseA)
				edit.Exercises[0].Tasks[0].Kind = exercise.TextTask
				return edit
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "duplicate task",
			userID: creator,
			edit: func() course.EditCourse {
				edit := editOf(t, env, courseA)
				edit.Exercises[0].Tasks = append(edit.Exercises[0].Tasks, edit.Exercises[0].Tasks[0])
				return edit
			},
			wantErr: core.IsBadRequest,
		},
		{
			name:   "invalid task kind",
			userID: creator,
			edit: func() course.EditCourse {
				return course.EditCourse{Exercises: []course.EditExercise{{
					Name:  "x",
					Tasks: []course.EditTask{{Kind: "Essay"}},
				}}}
			},
			wantErr: core.IsBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Courses.Merge(ctx, courseA, tt.userID, tt.edit())
			assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
			assert.Equal(t, before, loadState(t, env, courseA))
		})
	}

	_, err := env.Courses.Merge(ctx, courseB, creator, course.EditCourse{})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Merge_ValidationFields(t *testing.T) {
	env := setup(t)

	_, err := env.Courses.Merge(ctx, courseA, creator, course.EditCourse{
		Sections: []course.EditSection{{Entries: []course.EditEntry{{Kind: "video"}}}},
	})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "unexpected error: %v", err)
	assert.ElementsMatch(t, []core.FieldError{
		{Field: "sections[0].entries[0].kind", Error: "kind must be one of file, text, forum"},
		{Field: "sections[0].entries[0].name", Error: "this field is required"},
	}, verr.Fields)
}
