package testutils

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/binder"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/migrations"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestServer(t *testing.T) (*echo.Echo, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutes(e, db, "test-secret")

	return e, db
}

func TestCreateUser_ReturnsUsableToken(t *testing.T) {
	t.Parallel()
	e, db := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/test/users", strings.NewReader(`{"username":"reader"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp createUserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "reader", resp.User.Username)

	id, err := auth.NewService(db, "test-secret").ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id)
}

func TestDeleteCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, db := setupTestServer(t)

	topic := &models.Topic{Name: "scifi"}
	_, err := db.NewInsert().Model(topic).Returning("*").Exec(ctx)
	require.NoError(t, err)
	book := &models.Book{Title: "Dune", Active: true, Likes: []int{}}
	_, err = db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.BookTopic{BookID: book.ID, TopicID: topic.ID, Agreed: []int{}}).Exec(ctx)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/test/catalog", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp deleteCatalogResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Deleted["books"])
	assert.Equal(t, 1, resp.Deleted["book_topics"])
	assert.Equal(t, 1, resp.Deleted["topics"])

	n, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
