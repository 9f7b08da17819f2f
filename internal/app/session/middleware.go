package session

import (
	"errors"
	"net/http"

	"secrets/internal/app/user"
	"secrets/internal/pkg/logx"
)

// Middleware resolves the session cookie and loads the live user from users.
// A missing, invalid or orphaned session leaves the request anonymous. When
// the session store or users fails, the request stops at onError instead, so
// an outage is never mistaken for a signed-out visitor. A nil onError
// answers with a bare 500.
func (m *Manager) Middleware(users user.Store, onError http.Handler) func(next http.Handler) http.Handler {
	if onError == nil {
		onError = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := m.Resolve(r)
			if err != nil {
				if errors.Is(err, ErrNoSession) {
					next.ServeHTTP(w, r)
					return
				}
				logx.Ctx(r.Context()).Error().Err(err).Msg("session store lookup failed")
				onError.ServeHTTP(w, r)
				return
			}

			u, err := users.FindByID(r.Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					logx.Ctx(r.Context()).Warn().Str("user_id", identity.UserID).Msg("session refers to unknown user, treating as anonymous")
					next.ServeHTTP(w, r)
					return
				}
				logx.Ctx(r.Context()).Error().Err(err).Str("user_id", identity.UserID).Msg("failed to load session user")
				onError.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAuth redirects anonymous requests to loginPath with 302 Found.
func RequireAuth(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r) {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
