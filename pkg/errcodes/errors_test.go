package errcodes

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFields(t *testing.T) {
	t.Parallel()

	err := MissingFields([]string{"title", "amazon_link"})

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.HTTPCode)
	assert.Equal(t, CodeValidation, e.Code)
	assert.Equal(t, "Please check the following fields: Title, Amazon_link", e.Message)
	assert.Equal(t, []string{"title", "amazon_link"}, e.Data)
}

func TestPersistence_KeepsCauseOutOfMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("UNIQUE constraint failed")
	err := Persistence("Error creating new author for this book", cause, []string{"a"})

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "Error creating new author for this book", e.Message)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPCode)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestIs_IgnoresData(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, errors.WithStack(NotFound("Book")), NotFound("Book"))
	assert.NotErrorIs(t, NotFound("Book"), NotFound("Topic"))
	assert.ErrorIs(t, Conflict("dup", 1), Conflict("dup", 2))
}

func TestGeneratePayload(t *testing.T) {
	t.Parallel()

	h := NewHandler()

	t.Run("custom error with data", func(tt *testing.T) {
		code, payload := h.generatePayload(errors.WithStack(Conflict("exists", map[string]int{"id": 1})))
		assert.Equal(tt, http.StatusBadRequest, code)
		body := payload["error"].(map[string]interface{})
		assert.Equal(tt, CodeConflict, body["code"])
		assert.Equal(tt, map[string]int{"id": 1}, body["data"])
	})

	t.Run("generic error hides cause", func(tt *testing.T) {
		code, payload := h.generatePayload(errors.New("sql: connection refused"))
		assert.Equal(tt, http.StatusInternalServerError, code)
		body := payload["error"].(map[string]interface{})
		assert.Equal(tt, "internal_server_error", body["code"])
		assert.Equal(tt, "Internal Server Error", body["message"])
		assert.NotContains(tt, body, "data")
	})
}
