package course_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/tests"
)

func TestService_Create(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name    string
		nc      course.NewCourse
		wantErr bool
	}{
		{name: "missing name", nc: course.NewCourse{Name: "   ", Type: course.TypeOpen}, wantErr: true},
		{name: "invalid type", nc: course.NewCourse{Name: "Algebra", Type: "secret"}, wantErr: true},
		{name: "open", nc: course.NewCourse{Name: " Algebra ", About: "numbers", Type: course.TypeOpen}},
		{name: "public with password", nc: course.NewCourse{Name: "Geometry", Type: course.TypePublic, Password: "s3cret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.Courses.Create(ctx, creator, tt.nc)
			if tt.wantErr {
				assert.True(t, core.IsBadRequest(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, core.CleanString(tt.nc.Name), c.Name)
			assert.Equal(t, creator, c.Creator)
			assert.Equal(t, []string{creator}, c.Teachers)
			assert.Equal(t, tt.nc.Password != "", c.HasPassword)
			if tt.nc.Password != "" {
				assert.NoError(t, c.CheckPassword(tt.nc.Password))
			}

			stored, err := env.CourseRepo.GetCourse(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, course.RoleCreator, course.ResolveRole(stored, creator))
		})
	}
}

func TestService_Get(t *testing.T) {
	env := setup(t)
	populate(t, env)

	view, err := env.Courses.Get(ctx, courseA, student)
	require.NoError(t, err)
	assert.Equal(t, course.RoleStudent, view.Role)
	assert.Len(t, view.Sections[0].Entries, 3)

	view, err = env.Courses.Get(ctx, courseA, teacher)
	require.NoError(t, err)
	assert.Equal(t, course.RoleTeacher, view.Role)
	assert.Len(t, view.Sections[0].Entries, 4)

	c, err := env.CourseRepo.GetCourse(ctx, courseA)
	require.NoError(t, err)
	c.Type = course.TypeHidden
	require.NoError(t, env.CourseRepo.SaveCourse(ctx, c))

	_, err = env.Courses.Get(ctx, courseA, "stranger-id")
	assert.True(t, core.IsForbidden(err))
	_, err = env.Courses.Get(ctx, courseA, student)
	assert.NoError(t, err)
	_, err = env.Courses.Get(ctx, courseB, student)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Enroll(t *testing.T) {
	env := setup(t)
	newCourse := func(id string, tp course.Type, pwd string) {
		c := testutil.CreateCourse(t, env.CourseRepo, id, creator)
		c.Type = tp
		require.NoError(t, c.SetPassword(pwd))
		require.NoError(t, env.CourseRepo.SaveCourse(ctx, c))
	}
	newCourse("c0000000-0000-0000-0000-000000000001", course.TypePublic, "s3cret")
	newCourse("c0000000-0000-0000-0000-000000000002", course.TypePublic, "")
	newCourse("c0000000-0000-0000-0000-000000000003", course.TypeHidden, "")

	tests := []struct {
		name     string
		courseID string
		userID   string
		password string
		wantErr  func(error) bool
	}{
		{name: "open course", courseID: courseA, userID: "newbie-id"},
		{name: "already a student", courseID: courseA, userID: student, wantErr: core.IsConflict},
		{name: "already a teacher", courseID: courseA, userID: teacher, wantErr: core.IsConflict},
		{name: "creator", courseID: courseA, userID: creator, wantErr: core.IsConflict},
		{name: "wrong password", courseID: "c0000000-0000-0000-0000-000000000001", userID: student, password: "nope", wantErr: core.IsForbidden},
		{name: "right password", courseID: "c0000000-0000-0000-0000-000000000001", userID: student, password: "s3cret"},
		{name: "public without password", courseID: "c0000000-0000-0000-0000-000000000002", userID: student, password: "ignored"},
		{name: "hidden course", courseID: "c0000000-0000-0000-0000-000000000003", userID: student, wantErr: core.IsForbidden},
		{name: "unknown course", courseID: courseB, userID: student, wantErr: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.Courses.Enroll(ctx, tt.courseID, tt.userID, tt.password)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, c.Students, tt.userID)
			assert.Equal(t, course.RoleStudent, course.ResolveRole(c, tt.userID))
		})
	}
}

func TestService_Leave(t *testing.T) {
	env := setup(t)

	_, err := env.Courses.Subscribe(ctx, courseA, student)
	require.NoError(t, err)
	c, err := env.Courses.Leave(ctx, courseA, student)
	require.NoError(t, err)
	assert.NotContains(t, c.Students, student)
	assert.Empty(t, c.Subscribers)

	for _, userID := range []string{creator, teacher, student} {
		_, err = env.Courses.Leave(ctx, courseA, userID)
		assert.True(t, core.IsForbidden(err), userID)
	}
}

func TestService_Subscribe(t *testing.T) {
	env := setup(t)

	for i := 0; i < 2; i++ {
		c, err := env.Courses.Subscribe(ctx, courseA, student)
		require.NoError(t, err)
		require.Len(t, c.Subscribers, 1)
		assert.Equal(t, student, c.Subscribers[0].User)
	}

	_, err := env.Courses.Subscribe(ctx, courseA, "stranger-id")
	assert.True(t, core.IsForbidden(err))

	c, err := env.Courses.Unsubscribe(ctx, courseA, student)
	require.NoError(t, err)
	assert.Empty(t, c.Subscribers)
	c, err = env.Courses.Unsubscribe(ctx, courseA, student)
	require.NoError(t, err)
	assert.Empty(t, c.Subscribers)
}

func TestService_News(t *testing.T) {
	env := setup(t)

	_, err := env.Courses.News(ctx, courseA, student)
	assert.True(t, core.IsForbidden(err))

	c, err := env.CourseRepo.GetCourse(ctx, courseA)
	require.NoError(t, err)
	c.Subscribers = []course.Subscriber{{User: student, LastVisited: time.Now().UTC().Add(-time.Hour)}}
	c.Updates = []course.Update{{Created: time.Now().UTC().Add(-2 * time.Hour), Kind: course.UpdateNewInfo, NewName: "old news"}}
	require.NoError(t, env.CourseRepo.SaveCourse(ctx, c))

	_, err = env.Courses.Merge(ctx, courseA, creator, course.EditCourse{Name: testutil.StrPtr("Algebra")})
	require.NoError(t, err)
	populate(t, env)

	news, err := env.Courses.News(ctx, courseA, student)
	require.NoError(t, err)
	require.Len(t, news, 3)
	assert.Equal(t, course.UpdateNewEntries, news[0].Kind)
	assert.Equal(t, course.UpdateNewExercises, news[1].Kind)
	assert.Equal(t, course.UpdateNewInfo, news[2].Kind)
	assert.Equal(t, "Algebra", news[2].NewName)
	for i := 1; i < len(news); i++ {
		assert.False(t, news[i].Created.After(news[i-1].Created))
	}

	news, err = env.Courses.News(ctx, courseA, student)
	require.NoError(t, err)
	assert.Empty(t, news)
}

func TestService_InviteTeacher(t *testing.T) {
	env := setup(t)
	invitee := testutil.CreateUser(t, env.UserRepo, "invitee", "invitee@example.com")

	tests := []struct {
		name      string
		inviterID string
		inviteeID string
		wantErr   func(error) bool
	}{
		{name: "by a student", inviterID: student, inviteeID: invitee.ID, wantErr: core.IsForbidden},
		{name: "unknown invitee", inviterID: creator, inviteeID: "ghost-id", wantErr: core.IsNotFound},
		{name: "already a teacher", inviterID: creator, inviteeID: teacher, wantErr: core.IsConflict},
		{name: "ok", inviterID: teacher, inviteeID: invitee.ID},
		{name: "already invited", inviterID: creator, inviteeID: invitee.ID, wantErr: core.IsConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.Courses.InviteTeacher(ctx, courseA, tt.inviterID, tt.inviteeID)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.inviteeID}, c.InvitedTeachers)
		})
	}

	notifs, err := env.Users.Notifications(ctx, invitee.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, user.NotificationTeacherInvite, notifs[0].Type)
	assert.Equal(t, courseA, notifs[0].Data["CourseID"])

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "invitee@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Hello invitee,")
	assert.Contains(t, sent[0].TextContent, `teacher invited you to teach the course "Course `+courseA+`"`)
	assert.Contains(t, sent[0].HTMLContent, "/classroom/course/"+courseA)
}

func TestService_AcceptTeacherInvite(t *testing.T) {
	env := setup(t)

	_, err := env.Courses.AcceptTeacherInvite(ctx, courseA, student)
	assert.True(t, core.IsForbidden(err))

	_, err = env.Courses.InviteTeacher(ctx, courseA, creator, student)
	require.NoError(t, err)
	c, err := env.Courses.AcceptTeacherInvite(ctx, courseA, student)
	require.NoError(t, err)
	assert.Equal(t, course.RoleTeacher, course.ResolveRole(c, student))
	assert.NotContains(t, c.Students, student)
	assert.Empty(t, c.InvitedTeachers)

	_, err = env.Courses.AcceptTeacherInvite(ctx, courseA, student)
	assert.True(t, core.IsForbidden(err))

	notifs, err := env.Users.Notifications(ctx, creator)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, user.NotificationTeacherJoined, notifs[0].Type)

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "creator@example.com", sent[1].To[0].Address)
	assert.Contains(t, sent[1].TextContent, "student accepted your invitation")
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	populate(t, env)
	st := loadState(t, env, courseA)

	_, err := env.Courses.Delete(ctx, courseA, teacher)
	assert.True(t, core.IsForbidden(err))

	cascade, err := env.Courses.Delete(ctx, courseA, creator)
	require.NoError(t, err)
	assert.Len(t, cascade.Entries, 4)
	assert.Equal(t, []string{st.Forums[0].ID}, cascade.Forums)
	assert.ElementsMatch(t, st.Course.Exercises, cascade.Exercises)
	assert.ElementsMatch(t, []string{"blob-1", "blob-2"}, env.Blobs.Scheduled())
	assert.Contains(t, env.Logger.Messages, "course deleted")

	_, err = env.CourseRepo.GetCourse(ctx, courseA)
	assert.True(t, core.IsNotFound(err))
	_, err = env.CourseRepo.GetForum(ctx, st.Forums[0].ID)
	assert.True(t, core.IsNotFound(err))
	for _, id := range st.Course.Exercises {
		_, err = env.ExerciseRepo.GetExercise(ctx, id)
		assert.True(t, core.IsNotFound(err))
	}
}

func TestService_Membership(t *testing.T) {
	env := setup(t)
	testutil.CreateCourse(t, env.CourseRepo, courseB, "someone-id", teacher)

	m, err := env.Courses.Membership(ctx, teacher)
	require.NoError(t, err)
	assert.True(t, m.Teaches(courseA))
	assert.True(t, m.IsMember(courseB))
	assert.False(t, m.Teaches(courseB))

	m, err = env.Courses.Membership(ctx, "stranger-id")
	require.NoError(t, err)
	assert.False(t, m.IsMember(courseA))
}
