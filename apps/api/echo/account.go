package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

type accountApi struct {
	svc  *account.Service
	conf *core.Config
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *account.Service, conf *core.Config) {
	api := accountApi{svc: svc, conf: conf}
	admin := roleMiddleware(account.RoleAdmin)

	rg := g.Group("/register")
	rg.POST("/student", api.registerStudent)
	rg.POST("/parent", api.registerParent)
	rg.POST("/admin", api.registerAdmin, jwt, passwordChangedMiddleware, admin)
	rg.POST("/teacher", api.registerTeacher, jwt, passwordChangedMiddleware, admin)

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/password", api.changePassword, jwt)
	ag.GET("/me", api.me, jwt)

	pg := g.Group("/parents/me", jwt, passwordChangedMiddleware, roleMiddleware(account.RoleParent))
	pg.POST("/students", api.linkStudent)
	pg.GET("/students", api.linkedStudents)
}

// Handlers

func (api *accountApi) registerStudent(ctx echo.Context) error {
	var data account.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	reg, err := api.svc.RegisterStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *accountApi) registerParent(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	acc, err := api.svc.RegisterParent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering parent")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountApi) registerAdmin(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	acc, err := api.svc.RegisterAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering admin")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountApi) registerTeacher(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	reg, err := api.svc.RegisterTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering teacher")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if data.UsernameOrEmail == "" || data.Password == "" {
		return core.NewValidationError(account.ErrInvalidCredentials)
	}

	acc, err := api.svc.Authenticate(ctx.Request().Context(), data.UsernameOrEmail, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return api.tokenResponse(ctx, acc)
}

func (api *accountApi) changePassword(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	var data account.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}

	reqCtx := ctx.Request().Context()
	if err = api.svc.ChangePassword(reqCtx, caller.ID, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	acc, err := api.svc.GetByID(reqCtx, caller.ID)
	if err != nil {
		return errors.Wrap(err, "getting account")
	}
	// the previous token still carries the must-change flag
	return api.tokenResponse(ctx, acc)
}

func (api *accountApi) me(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	acc, err := api.svc.GetByID(ctx.Request().Context(), caller.ID)
	if err != nil {
		return errors.Wrap(err, "getting account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountApi) linkStudent(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	var data account.LinkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkRequest")
	}

	student, err := api.svc.LinkStudent(ctx.Request().Context(), caller.ID, data)
	if err != nil {
		return errors.Wrap(err, "linking student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *accountApi) linkedStudents(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	students, err := api.svc.LinkedStudents(ctx.Request().Context(), caller.ID)
	if err != nil {
		return errors.Wrap(err, "querying linked students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *accountApi) tokenResponse(ctx echo.Context, acc account.Account) error {
	token, err := GenerateToken(NewClaims(acc, api.conf), api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:              token,
		MustChangePassword: acc.MustChangePassword,
		Account:            acc,
	})
}

type (
	LoginRequest struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
	}

	LoginResponse struct {
		Token              string          `json:"token"`
		MustChangePassword bool            `json:"must_change_password"`
		Account            account.Account `json:"account"`
	}
)
