package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)

	// detail endpoints
	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.merge)
	dg.DELETE("", api.destroy)
	dg.POST("/enroll", api.enroll)
	dg.POST("/leave", api.leave)
	dg.POST("/subscribe", api.subscribe)
	dg.POST("/unsubscribe", api.unsubscribe)
	dg.GET("/news", api.news)
	dg.POST("/teachers", api.inviteTeacher)
	dg.POST("/teachers/accept", api.acceptTeacherInvite)
}

// view presents `c` to the authenticated user.
func view(c course.Course, uid string) course.CourseView {
	return course.NewView(c, course.ResolveRole(c, uid))
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	c, err := api.svc.Create(ctx.Request().Context(), uid, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, view(c, uid))
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	cv, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, cv)
}

func (api *courseApi) merge(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data course.EditCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditCourse")
	}

	res, err := api.svc.Merge(ctx.Request().Context(), ctx.Param("id"), uid, data)
	if err != nil {
		return errors.Wrap(err, "merging course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"course":  view(res.Course, uid),
		"news":    res.News,
		"cascade": res.Cascade,
	})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), uid); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data EnrollRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}

	c, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), uid, data.Password)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, view(c, uid))
}

type membershipOp func(ctx context.Context, courseID, userID string) (course.Course, error)

// membership runs one of the course membership operations for the authenticated user.
func (api *courseApi) membership(ctx echo.Context, op membershipOp, action string) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	c, err := op(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, action)
	}
	return ctx.JSON(http.StatusOK, view(c, uid))
}

func (api *courseApi) leave(ctx echo.Context) error {
	return api.membership(ctx, api.svc.Leave, "leaving course")
}

func (api *courseApi) subscribe(ctx echo.Context) error {
	return api.membership(ctx, api.svc.Subscribe, "subscribing")
}

func (api *courseApi) unsubscribe(ctx echo.Context) error {
	return api.membership(ctx, api.svc.Unsubscribe, "unsubscribing")
}

func (api *courseApi) acceptTeacherInvite(ctx echo.Context) error {
	return api.membership(ctx, api.svc.AcceptTeacherInvite, "accepting teacher invite")
}

func (api *courseApi) news(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	news, err := api.svc.News(ctx.Request().Context(), ctx.Param("id"), uid)
	if err != nil {
		return errors.Wrap(err, "getting news")
	}
	if news == nil {
		news = []course.Update{}
	}
	return ctx.JSON(http.StatusOK, news)
}

func (api *courseApi) inviteTeacher(ctx echo.Context) error {
	uid, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data InviteTeacherRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteTeacherRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.InviteTeacher(ctx.Request().Context(), ctx.Param("id"), uid, data.UserID)
	if err != nil {
		return errors.Wrap(err, "inviting teacher")
	}
	return ctx.JSON(http.StatusOK, view(c, uid))
}
