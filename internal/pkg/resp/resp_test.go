package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secrets/internal/pkg/errs"
)

func TestRespondSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)

	RespondSuccess(w, r, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "success", body.Message)
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"code":1007,"message":"`+errs.NewError(errs.ErrRateLimitExceeded).Message+`"}`, w.Body.String())

	w = httptest.NewRecorder()
	RespondError(w, r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRedirectWithError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)

	RedirectWithError(w, r, "/login", errs.NewError(errs.ErrInvalidCredentials))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=3004", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	RedirectWithError(w, r, "/secrets", nil)
	assert.Equal(t, "/secrets", w.Header().Get("Location"))
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsJSON(r))

	r.Header.Set("Accept", "application/json")
	assert.True(t, WantsJSON(r))

	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9")
	assert.False(t, WantsJSON(r))
}
