package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// paramID reads a positive integer path param; anything else cannot name a resource.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
