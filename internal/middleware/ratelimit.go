package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ashureev/softsell/internal/api"
	"github.com/ashureev/softsell/internal/identity"
	"golang.org/x/time/rate"
)

type visitorLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per visitor. Requests without an
// established visitor cookie are keyed by remote IP, so clients that drop
// cookies share one bucket per address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitorLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per visitor with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitorLimiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	v, ok := l.limiters[key]
	if !ok {
		v = &visitorLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Evict drops limiters idle longer than the idle TTL and returns how many
// were removed.
func (l *RateLimiter) Evict() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, v := range l.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// StartEviction evicts idle limiters every minute until ctx is done.
func (l *RateLimiter) StartEviction(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := l.Evict(); n > 0 {
					slog.Debug("Evicted idle rate limiters", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func limitKey(r *http.Request) string {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" || identity.IsNewVisitor(r.Context()) {
		return "ip:" + identity.IPFromRequest(r)
	}
	return "visitor:" + visitorID
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(limitKey(r)) {
			retryAfter := int(math.Ceil(1 / float64(l.rate)))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
