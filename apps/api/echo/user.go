package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

type userApi struct {
	svc  *user.Service
	auth *Auth
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, auth *Auth) {
	api := userApi{svc: svc, auth: auth}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("", api.signup)

	// authed endpoints
	ag := ug.Group("/me", jwt)
	ag.GET("", api.retrieve)
	ag.GET("/notifications", api.notifications)
}

// Handlers

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	token, err := api.auth.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, SignupResponse{User: usr, Token: token})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) notifications(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	notifications, err := api.svc.Notifications(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "getting notifications")
	}
	if notifications == nil {
		notifications = []user.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifications)
}
