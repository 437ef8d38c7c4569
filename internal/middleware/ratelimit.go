package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Counter counts hits for a key inside a fixed window that starts with the
// first hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter allows limit requests per client IP per window.
type RateLimiter struct {
	counter Counter
	name    string
	limit   int64
	window  time.Duration
	log     *zap.Logger
}

func NewRateLimiter(c Counter, name string, limit int64, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{counter: c, name: name, limit: limit, window: window, log: log}
}

// Limit rejects requests over the limit with 429. If the counter fails the
// request goes through and the failure is logged.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + rl.name + ":" + clientIP(r)
		count, err := rl.counter.Hit(r.Context(), key, rl.window)
		if err != nil {
			rl.log.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if count > rl.limit {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too many attempts. Please try again later."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP reads RemoteAddr, which chi's RealIP has already rewritten when
// the proxy headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
