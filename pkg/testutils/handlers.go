package testutils

import (
	"context"
	"net/http"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    *string `json:"email"`
}

// createUserResponse carries the new user and a token to act as them.
type createUserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// createUser creates a test user and signs a token for them.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
	}
	if err := h.authService.CreateUser(ctx, user); err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.Wrap(err, "failed to sign token")
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		User:  user,
		Token: token,
	}))
}

// deleteCatalogResponse is the response body for wiping the catalog.
type deleteCatalogResponse struct {
	Deleted map[string]int `json:"deleted"`
}

// Children before parents so foreign keys hold at every step.
var catalogModels = []struct {
	name  string
	model interface{}
}{
	{"third_party_data", (*models.ThirdPartyData)(nil)},
	{"pictures", (*models.Picture)(nil)},
	{"book_topics", (*models.BookTopic)(nil)},
	{"book_authors", (*models.BookAuthor)(nil)},
	{"books", (*models.Book)(nil)},
	{"topic_similar", (*models.TopicSimilar)(nil)},
	{"topics", (*models.Topic)(nil)},
	{"authors", (*models.Author)(nil)},
	{"users", (*models.User)(nil)},
}

// deleteCatalog removes every book, author, topic and user.
// DELETE /test/catalog.
func (h *handler) deleteCatalog(c echo.Context) error {
	ctx := c.Request().Context()
	deleted := map[string]int{}

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range catalogModels {
			result, err := tx.NewDelete().
				Model(m.model).
				Where("1=1").
				Exec(ctx)
			if err != nil {
				return errors.Wrapf(err, "failed to delete %s", m.name)
			}
			n, _ := result.RowsAffected()
			deleted[m.name] = int(n)
		}
		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, deleteCatalogResponse{Deleted: deleted}))
}
