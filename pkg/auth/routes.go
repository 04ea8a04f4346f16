package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the auth routes and returns the service and
// middleware other route groups authenticate with.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) (*Service, *Middleware) {
	authService := NewService(db, jwtSecret)
	authMiddleware := NewMiddleware(authService)

	h := &handler{}

	g := e.Group("/auth")
	g.GET("/me", h.me, authMiddleware.Authenticate)

	return authService, authMiddleware
}
