package ingest

import (
	"github.com/keenpages/catalog/pkg/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the ingestion routes on the books group.
func RegisterRoutesWithGroup(g *echo.Group, pipeline *Pipeline, authMiddleware *auth.Middleware) {
	h := &handler{pipeline}

	g.POST("/catalog", h.catalog)
	g.POST("", h.manual, authMiddleware.Authenticate)
}
