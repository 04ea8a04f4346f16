package topics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/keenpages/catalog/pkg/binder"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestServer(t *testing.T, db *bun.DB, lexicon Lexicon) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/topics"), db, lexicon)
	return e
}

func TestHandlers_CreateAndRetrieve(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db, &stubLexicon{entry: &LexiconEntry{Recognized: true}})

	req := httptest.NewRequest(http.MethodPost, "/topics", strings.NewReader(`{"name":"Horror","description":"scary"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created models.Topic
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "horror", created.Name)
	assert.True(t, created.Active)

	req = httptest.NewRequest(http.MethodGet, "/topics/"+strconv.Itoa(created.ID), nil)
	rr = httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"horror"`)
}

func TestHandlers_CreateWithoutName(t *testing.T) {
	t.Parallel()
	e := setupTestServer(t, setupTestDB(t), &stubLexicon{entry: &LexiconEntry{}})

	req := httptest.NewRequest(http.MethodPost, "/topics", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "You must include a name for this topic.")
}

func TestHandlers_RetrieveMissing(t *testing.T) {
	t.Parallel()
	e := setupTestServer(t, setupTestDB(t), &stubLexicon{entry: &LexiconEntry{}})

	for _, path := range []string{"/topics/999", "/topics/abc"} {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.Contains(t, rr.Body.String(), `"code":"not_found"`)
	}
}

func TestHandlers_ListSearchesByPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewService(db)
	for _, name := range []string{"science", "scifi", "history"} {
		require.NoError(t, svc.CreateTopic(ctx, &models.Topic{Name: name}))
	}
	e := setupTestServer(t, db, &stubLexicon{entry: &LexiconEntry{}})

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/topics?text=SC&limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Topics []*models.Topic `json:"topics"`
		Total  int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Topics, 1)
	assert.Equal(t, "science", body.Topics[0].Name)
}
