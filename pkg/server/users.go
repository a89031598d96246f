package server

import (
	"errors"
	"net/http"

	"catalogue/pkg/users"

	"github.com/labstack/echo/v4"
)

func (cs *CatalogueServer) checkUser(ctx echo.Context) error {
	params, err := requireParams(ctx, "user", "passwd")
	if err != nil {
		return respondError(ctx, err)
	}

	ok, err := cs.users.CheckPassword(ctx.Request().Context(), params["user"], params["passwd"])
	switch {
	case errors.Is(err, users.ErrNotFound):
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, users.ErrMismatch):
		return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case err != nil:
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ok)
}
