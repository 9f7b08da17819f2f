package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	e := NewError(ErrInvalidCredentials)
	assert.Equal(t, ErrInvalidCredentials, e.Code)
	assert.Equal(t, "Incorrect username or password.", e.Message)
	assert.Equal(t, http.StatusUnauthorized, e.Status)

	e = NewError(ErrAlreadyLoggedIn)
	assert.Equal(t, http.StatusConflict, e.Status)

	e = NewError(ErrSecretTooLong, 500)
	assert.Equal(t, "Your secret is too long.", e.Message, "details without a placeholder are ignored")

	e = NewError(424242)
	assert.Equal(t, ErrUnknown, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}

func TestEveryCodeHasStatus(t *testing.T) {
	for code, tmpl := range errorMap {
		assert.NotZero(t, tmpl.Status, "code %d", code)
	}
	for code := range flashable {
		_, ok := errorMap[code]
		assert.True(t, ok, "flashable code %d has no message", code)
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(NewError(ErrUserAlreadyExists).Query())
	require.True(t, ok)
	assert.Equal(t, ErrUserAlreadyExists, e.Code)

	e, ok = Lookup("3001")
	require.True(t, ok)
	assert.Equal(t, "You are already signed in.", e.Message)

	for _, raw := range []string{"", "abc", "5000", "5001", "99999"} {
		_, ok := Lookup(raw)
		assert.False(t, ok, raw)
	}
}
