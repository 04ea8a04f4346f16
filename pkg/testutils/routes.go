// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/keenpages/catalog/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) {
	h := &handler{db: db, authService: auth.NewService(db, jwtSecret)}

	test := e.Group("/test")
	test.POST("/users", h.createUser)
	test.DELETE("/catalog", h.deleteCatalog)
}
