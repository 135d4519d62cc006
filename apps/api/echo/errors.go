package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "account not authenticated")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
	errMustChangePass = echo.NewHTTPError(http.StatusForbidden, "password change required")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}

			httpErr      *echo.HTTPError
			validErr     *core.ValidationError
			conflictErr  *core.ConflictError
			forbiddenErr *core.ForbiddenError
			notFoundErr  *core.NotFoundError
		)

		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = httpErr.Message
				break
			}
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &validErr):
			if validErr.Fields != nil {
				fldErrs := make(map[string]string, len(validErr.Fields))
				for _, fErr := range validErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = validErr.Error()
			}
			code = http.StatusBadRequest
		case errors.As(err, &conflictErr):
			code = http.StatusConflict
			if conflictErr.Field != "" {
				message = map[string]string{conflictErr.Field: conflictErr.Error()}
			} else {
				message = conflictErr.Error()
			}
		case errors.As(err, &forbiddenErr):
			code = http.StatusForbidden
			message = forbiddenErr.Error()
		case errors.As(err, &notFoundErr):
			code = http.StatusNotFound
			message = notFoundErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var person core.LogPerson
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				person = claims.LogPerson()
			}
			logger.Error(msg, errors.Wrap(err, msg), person)

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
