package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

// roleMiddleware lets through callers holding any of roles.
func roleMiddleware(roles ...account.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller, err := getContextCaller(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context caller")
			}
			for _, role := range roles {
				if caller.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// passwordChangedMiddleware blocks accounts that still have to replace their temporary password.
func passwordChangedMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.MustChangePassword {
			return errMustChangePass
		}
		return next(ctx)
	}
}
