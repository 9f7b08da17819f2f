/*
Package limiter provides rate limiting keyed by client IP address.

Each IP gets its own token bucket (rate.Limiter). Idle buckets are swept
lazily while new visitors arrive, so no background goroutine outlives the
router that owns the limiter.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"secrets/internal/pkg/errs"
	"secrets/internal/pkg/logx"
	"secrets/internal/pkg/resp"
)

// SweepInterval is the minimum time between two sweeps of idle buckets.
const SweepInterval = 3 * time.Minute

// IPRateLimiter limits requests per client IP address.
type IPRateLimiter struct {
	mu sync.RWMutex

	// limits maps client IP address to its token bucket.
	limits map[string]*rate.Limiter

	r rate.Limit
	b int

	// onLimit writes the response for a rejected request.
	onLimit http.Handler

	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter creates a limiter allowing r events per second with burst b.
// A nil onLimit answers rejected requests with the JSON error envelope.
func NewIPRateLimiter(r rate.Limit, b int, onLimit http.Handler) *IPRateLimiter {
	if onLimit == nil {
		onLimit = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
		})
	}

	return &IPRateLimiter{
		limits:    make(map[string]*rate.Limiter),
		r:         r,
		b:         b,
		onLimit:   onLimit,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists = i.limits[ip]
	if !exists {
		i.sweepLocked()
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}

	return limiter
}

// Len reports how many buckets are currently tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.limits)
}

// sweepLocked drops buckets that have refilled completely, meaning the IP
// has been idle long enough that forgetting it changes nothing.
func (i *IPRateLimiter) sweepLocked() {
	now := i.now()
	if now.Sub(i.lastSweep) < SweepInterval {
		return
	}
	i.lastSweep = now

	removed := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}

	logx.Debug("Rate limiter sweep finished", "removed", removed, "remaining", len(i.limits))
}

// Middleware rejects requests from IPs that exceeded their budget.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !i.GetLimiter(ip).Allow() {
			logx.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Rate limit exceeded")
			i.onLimit.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
