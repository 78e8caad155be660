package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/api/response"
	"github.com/kiranshivaraju/recruitai/internal/cache"
)

const (
	defaultRequestsPerMinute = 60
	rateWindow               = time.Minute
)

// RateLimit provides fixed-window rate limiting per client address via the cache.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	now            func() time.Time
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin, now: time.Now}
}

// Limit counts requests per client as resolved by ClientIP.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, ok := GetClient(r)
		if !ok {
			// ClientIP did not run; pass through
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(client), rateWindow)
		if err != nil {
			// fail open
			slog.Warn("rate limit check failed", "client", client, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		resetTime := rl.now().Add(rateWindow).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
