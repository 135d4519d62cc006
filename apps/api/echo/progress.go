package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/progress"
)

type progressApi struct {
	svc *progress.Service
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *progress.Service) {
	api := progressApi{svc: svc}

	g.GET("/courses/:id/lessons", api.listLessons, jwt, passwordChangedMiddleware)
	g.POST("/lessons/:id/complete", api.complete, jwt, passwordChangedMiddleware, roleMiddleware(account.RoleStudent))
}

func (api *progressApi) listLessons(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	courseID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	lessons, err := api.svc.ListLessons(ctx.Request().Context(), caller, courseID)
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *progressApi) complete(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	lessonID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	status, err := api.svc.MarkComplete(ctx.Request().Context(), caller, lessonID)
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, status)
}
