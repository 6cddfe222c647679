package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	redisstore "github.com/ramiqadoumi/go-earn-flow/internal/redis"
	"github.com/ramiqadoumi/go-earn-flow/internal/session"
)

// RateLimit rejects requests over limiter's budget with 429. Requests are
// keyed by session, falling back to the remote address. A Redis failure lets
// the request through. retryAfter is advertised to rejected clients.
func RateLimit(limiter redisstore.RateLimiter, retryAfter time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if s, ok := session.FromContext(r.Context()); ok {
				key = s.ID()
			}
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
