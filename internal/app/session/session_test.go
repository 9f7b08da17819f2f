package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secrets/internal/app/user"
)

const testSecret = "test-session-secret"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m, err := NewManager(store, Config{Secret: testSecret, TTL: time.Hour})
	require.NoError(t, err)
	return m
}

// login establishes a session for u and returns the cookie the browser would keep.
func login(t *testing.T, m *Manager, u *user.User, existing ...*http.Cookie) *http.Cookie {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	for _, c := range existing {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, r, u))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/secrets", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestEstablishAndResolve(t *testing.T) {
	m := newTestManager(t)
	u := &user.User{ID: "u-1", Username: "alice", PasswordHash: "never-in-session"}

	c := login(t, m, u)
	assert.Equal(t, DefaultCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.NotContains(t, c.Value, "alice")

	identity, err := m.Resolve(requestWith(c))
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "u-1", Username: "alice"}, identity)

	_, err = m.Resolve(requestWith(nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoredRecordHasNoCredentials(t *testing.T) {
	m := newTestManager(t)
	c := login(t, m, &user.User{ID: "u-1", Username: "alice", PasswordHash: "$2a$10$secret-hash"})

	id, err := parseToken(c.Value, m.secret)
	require.NoError(t, err)
	data, err := m.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
}

func TestTamperedCookie(t *testing.T) {
	m := newTestManager(t)
	c := login(t, m, &user.User{ID: "u-1"})

	forged := *c
	b := []byte(c.Value)
	i := len(b) - 10
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	forged.Value = string(b)
	_, err := m.Resolve(requestWith(&forged))
	assert.ErrorIs(t, err, ErrNoSession)

	other, err := NewManager(m.store, Config{Secret: "another-secret"})
	require.NoError(t, err)
	_, err = other.Resolve(requestWith(c))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)
	c := login(t, m, &user.User{ID: "u-1"})

	rec := httptest.NewRecorder()
	require.NoError(t, m.Logout(rec, requestWith(c)))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	_, err := m.Resolve(requestWith(c))
	assert.ErrorIs(t, err, ErrNoSession, "a replayed cookie must not revive the session")

	require.NoError(t, m.Logout(httptest.NewRecorder(), requestWith(nil)))
}

func TestEstablishRotatesSession(t *testing.T) {
	m := newTestManager(t)
	first := login(t, m, &user.User{ID: "u-1"})
	second := login(t, m, &user.User{ID: "u-2"}, first)

	assert.NotEqual(t, first.Value, second.Value)

	_, err := m.Resolve(requestWith(first))
	assert.ErrorIs(t, err, ErrNoSession)

	identity, err := m.Resolve(requestWith(second))
	require.NoError(t, err)
	assert.Equal(t, "u-2", identity.UserID)
}

func TestExpiredSession(t *testing.T) {
	m := newTestManager(t)
	c := login(t, m, &user.User{ID: "u-1"})

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := m.Resolve(requestWith(c))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(nil, Config{})
	assert.Error(t, err)
}

type failingStore struct{ *MemoryStore }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestResolveSurfacesStoreErrors(t *testing.T) {
	m := newTestManager(t)
	c := login(t, m, &user.User{ID: "u-1"})

	m.store = failingStore{m.store.(*MemoryStore)}
	_, err := m.Resolve(requestWith(c))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestMiddleware(t *testing.T) {
	m := newTestManager(t)
	users := user.NewMemoryStore()
	alice, err := users.Create(context.Background(), &user.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	var seen *user.User
	h := m.Middleware(users, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), requestWith(nil))
	assert.Nil(t, seen)

	c := login(t, m, alice)
	h.ServeHTTP(httptest.NewRecorder(), requestWith(c))
	require.NotNil(t, seen)
	assert.Equal(t, alice.ID, seen.ID)

	orphan := login(t, m, &user.User{ID: "deleted-user"})
	seen = nil
	h.ServeHTTP(httptest.NewRecorder(), requestWith(orphan))
	assert.Nil(t, seen)
}

type downUsers struct{ *user.MemoryStore }

func (downUsers) FindByID(context.Context, string) (*user.User, error) {
	return nil, errors.New("connection refused")
}

func TestMiddlewareStopsOnStoreFailure(t *testing.T) {
	m := newTestManager(t)
	users := user.NewMemoryStore()
	alice, err := users.Create(context.Background(), &user.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	c := login(t, m, alice)

	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	// Credential store down.
	rec := httptest.NewRecorder()
	m.Middleware(downUsers{users}, teapot)(next).ServeHTTP(rec, requestWith(c))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.False(t, called)

	// Session store down, default handler.
	m.store = failingStore{m.store.(*MemoryStore)}
	rec = httptest.NewRecorder()
	m.Middleware(users, nil)(next).ServeHTTP(rec, requestWith(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)

	// Without a cookie the store is never consulted.
	rec = httptest.NewRecorder()
	m.Middleware(users, nil)(next).ServeHTTP(rec, requestWith(nil))
	assert.True(t, called)
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWith(nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, called)

	r := requestWith(nil)
	r = r.WithContext(WithUser(r.Context(), &user.User{ID: "u-1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.True(t, called)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(context.Background(), "", time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(context.Background(), "memcached://localhost", time.Minute)
	assert.Error(t, err)
}

// TestRedisStore runs against a real server when TEST_REDIS_URL is set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	s, err := NewRedisStore(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	id := "test-" + strings.ReplaceAll(t.Name(), "/", "-")
	require.NoError(t, s.Put(ctx, id, []byte("payload"), time.Minute))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
