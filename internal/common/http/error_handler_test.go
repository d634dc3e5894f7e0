package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestHandleError_DomainError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test", "debug")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
	err := fmt.Errorf("register: %w", commonerrors.ErrUsernameAlreadyExists.WithCause(errors.New("23505")))

	HandleError(rec, req, err, log)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "username already exists", decodeError(t, rec))
	assert.Contains(t, buf.String(), "error_code=USERNAME_ALREADY_EXISTS")
}

func TestHandleError_ServerSideDomainErrorLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test", "error")

	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/quote", nil), commonerrors.ErrUpstreamUnavailable, log)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch quote", decodeError(t, rec))
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestHandleError_PlainErrorDoesNotLeak(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{}, "test", "info")

	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("secret dsn"), log)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec))
}

func TestHandleError_NilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil, logger.NewWithWriter(&bytes.Buffer{}, "", ""))

	assert.Equal(t, 0, rec.Body.Len())
}
