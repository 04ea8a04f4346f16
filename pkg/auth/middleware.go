package auth

import (
	"strings"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/labstack/echo/v4"
)

const (
	HeaderAccessToken = "X-Access-Token"
	QueryAccessToken  = "token"
)

type Middleware struct {
	authService *Service
}

func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate requires a valid access token for an existing user and stores
// the user in the context. Anything else is turned away with a 403.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthenticated()
		}

		userID, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthenticated()
		}

		user, err := m.authService.GetUserByID(ctx, userID)
		if err != nil {
			return errcodes.Unauthenticated()
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)

		return next(c)
	}
}

// UserFromContext returns the user stored by Authenticate.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok && user != nil
}

func tokenFromRequest(c echo.Context) string {
	if t := strings.TrimSpace(c.Request().Header.Get(HeaderAccessToken)); t != "" {
		return t
	}
	return strings.TrimSpace(c.QueryParam(QueryAccessToken))
}
