package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/tests"
)

func Test_home(t *testing.T) {
	a := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	a.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to mmLearn API!", rec.Body.String())
}

func Test_userApi_signup(t *testing.T) {
	a := setup(t)

	t.Run("invalid", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/users", "", []byte(`{"email":"nope"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":  "this field is required",
				"email": "email must be a valid email address",
			}),
		}, rec)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/users", "", []byte(`{"name":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/users", "", []byte(`{"name":"  Ada ","email":"ADA@test.io"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res echoapi.SignupResponse
		unmarshal(t, rec, &res)
		assert.NotEmpty(t, res.User.ID)
		assert.Equal(t, "Ada", res.User.Name)
		assert.Equal(t, "ada@test.io", res.User.Email)
		assert.NotEmpty(t, res.Token)

		// the returned token authenticates the new user
		rec = a.do(http.MethodGet, "/v1/users/me", res.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, res.User.ID, usr.ID)
	})
}

func Test_userApi_me(t *testing.T) {
	a := setup(t)
	usr := testutil.CreateUser(t, a.UserRepo, "Ada", "ada@test.io")
	token := a.getToken(t, usr)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid token", path: "/v1/users/me", token: "not.a.token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "Me", path: "/v1/users/me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{name: "Trailing slash", path: "/v1/users/me/", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{
			name: "No notifications", path: "/v1/users/me/notifications", token: token,
			wantCode: http.StatusOK, wantData: []byte(`[]`),
		},
	}
	runHTTPTests(t, a, tests)

	t.Run("Unknown user", func(t *testing.T) {
		ghost := user.User{ID: "ghost-id", Name: "Ghost"}
		rec := a.do(http.MethodGet, "/v1/users/me", a.getToken(t, ghost))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		}, rec)
	})
}
