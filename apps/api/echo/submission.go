package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/submission"
)

type submissionApi struct {
	svc *submission.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *submission.Service) {
	api := submissionApi{svc: svc}

	g.POST("/assignments/:id/submissions", api.submit, jwt, passwordChangedMiddleware, roleMiddleware(account.RoleStudent))
	g.GET("/submissions/:id", api.retrieve, jwt, passwordChangedMiddleware)
	g.POST("/submissions/:id/assess", api.assess, jwt, passwordChangedMiddleware, roleMiddleware(account.RoleTeacher))
}

func (api *submissionApi) submit(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	assignmentID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data submission.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	s, err := api.svc.Submit(ctx.Request().Context(), caller, assignmentID, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	s, err := api.svc.Get(ctx.Request().Context(), caller, id)
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionApi) assess(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data submission.Assessment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assessment")
	}

	s, err := api.svc.Assess(ctx.Request().Context(), caller, id, data)
	if err != nil {
		return errors.Wrap(err, "assessing submission")
	}
	return ctx.JSON(http.StatusOK, s)
}
