package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/tests"
)

var ctx = context.Background()

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		nu      user.NewUser
		want    user.User
		wantErr bool
	}{
		{name: "missing name", nu: user.NewUser{Name: "  ", Email: "ann@example.com"}, wantErr: true},
		{name: "invalid email", nu: user.NewUser{Name: "Ann", Email: "ann"}, wantErr: true},
		{name: "without email", nu: user.NewUser{Name: "Ann"}, want: user.User{Name: "Ann"}},
		{name: "ok", nu: user.NewUser{Name: " Ann ", Email: " Ann@Example.com"}, want: user.User{Name: "Ann", Email: "ann@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := env.Users.Create(ctx, tt.nu)
			if tt.wantErr {
				assert.True(t, core.IsBadRequest(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, usr.ID)
			assert.Equal(t, tt.want.Name, usr.Name)
			assert.Equal(t, tt.want.Email, usr.Email)

			got, err := env.Users.GetByID(ctx, usr.ID)
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
		})
	}

	_, err := env.Users.GetByID(ctx, "nope")
	assert.True(t, core.IsNotFound(err))
}

func TestService_Notify(t *testing.T) {
	env := testutil.NewEnv(t)
	ann := testutil.CreateUser(t, env.UserRepo, "ann", "ann@example.com")
	bob := testutil.CreateUser(t, env.UserRepo, "bob", "")

	data := map[string]string{"TeacherName": "carl", "CourseName": "Algebra", "CourseID": "c1"}
	for _, title := range []string{"first", "second"} {
		err := env.Users.Notify(ctx, ann.ID, user.Notification{Type: user.NotificationTeacherJoined, Title: title, Data: data})
		require.NoError(t, err)
	}
	require.NoError(t, env.Users.Notify(ctx, bob.ID, user.Notification{Type: user.NotificationTeacherJoined, Title: "hi", Data: data}))

	notifs, err := env.Users.Notifications(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, "second", notifs[0].Title)
	assert.Equal(t, "first", notifs[1].Title)
	assert.False(t, notifs[0].Created.IsZero())

	// bob has no address: inbox only
	notifs, err = env.Users.Notifications(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 2)
	for _, msg := range sent {
		assert.Equal(t, "ann@example.com", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, `carl accepted your invitation and now teaches "Algebra".`)
	}

	err = env.Users.Notify(ctx, "ghost-id", user.Notification{Type: user.NotificationTeacherJoined})
	assert.True(t, core.IsNotFound(err))
}
