package ingest

import (
	"net/http"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	pipeline *Pipeline
}

func (h *handler) catalog(c echo.Context) error {
	ctx := c.Request().Context()

	// The provider sends more than the fields used here.
	c.Set("disallow_unknown_fields", false)

	params := CatalogSubmission{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.pipeline.Catalog(ctx, &params)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) manual(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthenticated()
	}

	params := ManualSubmission{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.pipeline.Manual(ctx, &params, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result.Book))
}
