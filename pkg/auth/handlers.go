package auth

import (
	"net/http"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct{}

func (h *handler) me(c echo.Context) error {
	user, ok := UserFromContext(c)
	if !ok {
		return errcodes.Unauthenticated()
	}
	return errors.WithStack(c.JSON(http.StatusOK, user))
}
