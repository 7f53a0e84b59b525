package middleware

import (
	"net/http"
	"sync"
	"time"

	"hiretrack/internal/auth"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per authenticated user.
type RateLimiter struct {
	limiters sync.Map // uuid.UUID -> *cachedLimiter
	rps      rate.Limit
	burst    int
	ttl      time.Duration
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTTL sets how long an idle bucket is kept.
func WithTTL(ttl time.Duration) RateLimiterOption {
	return func(l *RateLimiter) { l.ttl = ttl }
}

// WithLimit sets the sustained rate and burst. rps <= 0 disables limiting.
func WithLimit(rps float64, burst int) RateLimiterOption {
	return func(l *RateLimiter) {
		l.rps = rate.Limit(rps)
		l.burst = burst
	}
}

// NewRateLimiter creates a limiter allowing 10 req/s with a burst of 20 by default.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{rps: 10, burst: 20, ttl: 5 * time.Minute}
	for _, opt := range opts {
		opt(l)
	}
	if l.burst <= 0 {
		l.burst = 1
	}
	return l
}

// Middleware must run after Authenticate.
func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}

			if l.rps > 0 && !l.limiter(id.UserID).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func (l *RateLimiter) limiter(userID uuid.UUID) *rate.Limiter {
	now := time.Now()
	if v, ok := l.limiters.Load(userID); ok {
		cached := v.(*cachedLimiter)
		if now.Before(cached.expiresAt) {
			return cached.limiter
		}
	}

	limiter := rate.NewLimiter(l.rps, l.burst)
	l.limiters.Store(userID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: now.Add(l.ttl),
	})
	return limiter
}
