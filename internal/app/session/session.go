/*
Package session turns a verified user into a server-side session and resolves
that session on later requests.

The browser only holds a signed, opaque session ID. The store maps the ID to
the minimal identity (user ID and username); the live user record is reloaded
from the credential store on every request, so credential material never
lives in session state.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"secrets/internal/app/user"
	"secrets/internal/pkg/randx"
)

const (
	// DefaultCookieName is the session cookie's name.
	DefaultCookieName = "secrets_session"

	// DefaultTTL is how long a session stays valid after login.
	DefaultTTL = 24 * time.Hour
)

// ErrNoSession means the request carries no usable session: missing, forged,
// expired, revoked or evicted cookies all end up here.
var ErrNoSession = errors.New("no valid session")

// Identity is what a session remembers about its user.
type Identity struct {
	UserID   string
	Username string
}

// record is the encoded store value.
type record struct {
	UserID    string `msgpack:"uid"`
	Username  string `msgpack:"usr,omitempty"`
	ExpiresAt int64  `msgpack:"exp"`
}

// Config controls cookie signing and lifetime.
type Config struct {
	// Secret signs session cookies. Required.
	Secret string

	TTL        time.Duration
	CookieName string

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		now:        time.Now,
	}, nil
}

// Establish starts a new session for u and sets the cookie on w. Any session
// already attached to r is revoked first, so a login always gets a fresh ID.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, u *user.User) error {
	if u == nil || u.ID == "" {
		return errors.New("cannot establish a session without a user id")
	}

	if old, err := m.sessionID(r); err == nil {
		if err := m.store.Delete(r.Context(), old); err != nil {
			return fmt.Errorf("failed to revoke previous session: %w", err)
		}
	}

	id, err := randx.SessionID()
	if err != nil {
		return err
	}

	now := m.now()
	data, err := msgpack.Marshal(&record{
		UserID:    u.ID,
		Username:  u.Username,
		ExpiresAt: now.Add(m.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := m.store.Put(r.Context(), id, data, m.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	token, err := signToken(id, m.secret, now, m.ttl)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Resolve returns the identity behind r's session cookie. It returns
// ErrNoSession for anything short of a live session, and the store's error
// if the store itself failed.
func (m *Manager) Resolve(r *http.Request) (*Identity, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return nil, ErrNoSession
	}

	data, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil || rec.UserID == "" {
		return nil, ErrNoSession
	}

	if m.now().Unix() >= rec.ExpiresAt {
		_ = m.store.Delete(r.Context(), id)
		return nil, ErrNoSession
	}

	return &Identity{UserID: rec.UserID, Username: rec.Username}, nil
}

// Logout revokes r's session, if any, and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	m.clearCookie(w)

	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	return m.store.Delete(r.Context(), id)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", err
	}
	return parseToken(c.Value, m.secret)
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

type contextKey string

const userContextKey contextKey = "session_user"

// WithUser returns a copy of ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userContextKey).(*user.User)
	return u
}

// IsAuthenticated reports whether Middleware attached a live user to r.
func IsAuthenticated(r *http.Request) bool {
	return UserFromContext(r.Context()) != nil
}
