package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func hit(h http.Handler, remoteAddr string) int {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestMiddlewareLimitsPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2, nil)
	h := l.Middleware(ok)

	assert.Equal(t, http.StatusNoContent, hit(h, "192.0.2.1:1000"))
	assert.Equal(t, http.StatusNoContent, hit(h, "192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "192.0.2.1:1002"))

	// Another client still has its own budget.
	assert.Equal(t, http.StatusNoContent, hit(h, "192.0.2.2:1000"))
}

func TestMiddlewareCustomRejection(t *testing.T) {
	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	l := NewIPRateLimiter(rate.Every(time.Hour), 1, teapot)
	h := l.Middleware(ok)

	assert.Equal(t, http.StatusNoContent, hit(h, "no-port"))
	assert.Equal(t, http.StatusTeapot, hit(h, "no-port"))
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	now := time.Now()
	l := NewIPRateLimiter(rate.Limit(100), 1, nil)
	l.now = func() time.Time { return now }

	l.GetLimiter("192.0.2.1").Allow()
	l.GetLimiter("192.0.2.2")
	assert.Equal(t, 2, l.Len())

	// Before the interval nothing is swept.
	l.GetLimiter("192.0.2.3")
	assert.Equal(t, 3, l.Len())

	now = now.Add(SweepInterval + time.Second)
	l.GetLimiter("192.0.2.4")
	assert.Equal(t, 1, l.Len(), "every refilled bucket is dropped before the new one is added")
}
