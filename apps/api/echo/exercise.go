package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
)

type exerciseApi struct {
	svc      *exercise.Service
	validate *validator.Validate
}

func registerExerciseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *exercise.Service, validate *validator.Validate) {
	api := exerciseApi{svc: svc, validate: validate}

	eg := g.Group("/exercises/:id", jwt)
	eg.GET("", api.retrieve)
	eg.GET("/attempts", api.queryAttempts)
	eg.POST("/attempts", api.newAttempt)

	ag := g.Group("/attempts/:id", jwt)
	ag.GET("", api.retrieveAttempt)
	ag.PUT("", api.updateAnswers)
	ag.POST("/finish", api.finishAttempt)
}

// Handlers

func (api *exerciseApi) retrieve(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	ev, err := api.svc.GetExercise(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "getting exercise")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *exerciseApi) queryAttempts(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	attempts, err := api.svc.ListAttempts(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "listing attempts")
	}
	if attempts == nil {
		attempts = []exercise.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *exerciseApi) newAttempt(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	attempt, err := api.svc.NewAttempt(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "starting attempt")
	}
	return ctx.JSON(http.StatusCreated, attempt)
}

func (api *exerciseApi) retrieveAttempt(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	attempt, err := api.svc.GetAttempt(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "getting attempt")
	}
	return ctx.JSON(http.StatusOK, attempt)
}

func (api *exerciseApi) updateAnswers(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data AnswersRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswersRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	attempt, err := api.svc.UpdateAnswers(ctx.Request().Context(), ctx.Param("id"), uid, data.Answers)
	if err != nil {
		return errors.Wrap(err, "updating answers")
	}
	return ctx.JSON(http.StatusOK, attempt)
}

func (api *exerciseApi) finishAttempt(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	attempt, err := api.svc.FinishAttempt(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "finishing attempt")
	}
	return ctx.JSON(http.StatusOK, attempt)
}
