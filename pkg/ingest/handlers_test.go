package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/binder"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, f *manualFixture) (*echo.Echo, string) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	authService := auth.NewService(f.db, "test-secret")
	RegisterRoutesWithGroup(e.Group("/books"), f.pipeline, auth.NewMiddleware(authService))

	token, err := authService.GenerateToken(f.user)
	require.NoError(t, err)
	return e, token
}

func post(e *echo.Echo, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(auth.HeaderAccessToken, token)
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestHandlers_Catalog(t *testing.T) {
	t.Parallel()
	f := newManualFixture(t)
	e, _ := setupTestServer(t, f)

	body := `{
		"gId": "g1",
		"gTag": "t1",
		"title": "Dune",
		"description": "Desert planet epic",
		"isbn10": "0441013597",
		"authors": [{"name": "Frank Herbert"}],
		"topics": [{"topic": {"name": "scifi"}}],
		"pictures": [],
		"selfLink": "https://search.example.com/g1"
	}`

	rr := post(e, "/books/catalog", body, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result struct {
		Status string `json:"status"`
		Book   struct {
			ID          int    `json:"id"`
			GID         string `json:"g_id"`
			Description string `json:"description"`
		} `json:"book"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "created", result.Status)
	assert.Equal(t, "g1", result.Book.GID)
	assert.Equal(t, "Desert planet epic", result.Book.Description)

	rr = post(e, "/books/catalog", body, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "existing", result.Status)
}

func TestHandlers_CatalogMissingFields(t *testing.T) {
	t.Parallel()
	f := newManualFixture(t)
	e, _ := setupTestServer(t, f)

	rr := post(e, "/books/catalog", `{"isbn10":"0441013597"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":{
		"code":"validation_error",
		"message":"Please check the following fields: GId, GTag, Title",
		"status_code":400,
		"data":["gId","gTag","title"]
	}}`, rr.Body.String())
}

func TestHandlers_Manual(t *testing.T) {
	t.Parallel()
	f := newManualFixture(t)
	e, token := setupTestServer(t, f)

	body := `{
		"title": "Dune",
		"writer": {"name": "Frank Herbert"},
		"topics": [{"_id": ` + jsonInt(f.scifi.ID) + `}],
		"isbn": "0441013597",
		"amazon_link": "https://www.amazon.com/dp/0441013597"
	}`

	rr := post(e, "/books", body, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = post(e, "/books", body, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"title":"Dune"`)

	rr = post(e, "/books", body, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"conflict"`)
	assert.Contains(t, rr.Body.String(), `"data":{"id":`)
}

func TestHandlers_ManualRejectsBadLink(t *testing.T) {
	t.Parallel()
	f := newManualFixture(t)
	e, token := setupTestServer(t, f)

	rr := post(e, "/books", `{"title":"Dune","amazon_link":"not a link"}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":["writer","topics","isbn"]`)

	body := `{
		"title": "Dune",
		"writer": {"name": "Frank Herbert"},
		"topics": [{"_id": ` + jsonInt(f.scifi.ID) + `}],
		"isbn": "0441013597",
		"amazon_link": "ftp://www.amazon.com/dp/0441013597"
	}`
	rr = post(e, "/books", body, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "must be an http or https link")
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
