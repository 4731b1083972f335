package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements distributed fixed-window rate limiting on
// Redis, keyed by client IP and endpoint name. In the console it
// guards the login endpoint, which proxies straight to the platform's
// credential check and is the only surface worth brute forcing.
type RateLimiter struct {
	redis          *database.RedisDB
	requestsPerMin int
	window         time.Duration
}

// NewRateLimiter creates a rate limiter.
//
// Example:
//
//	limiter := middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration)
//	r.With(limiter.Limit("login")).Post("/api/auth/login", authHandler.Login)
func NewRateLimiter(redis *database.RedisDB, requestsPerMin int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:          redis,
		requestsPerMin: requestsPerMin,
		window:         window,
	}
}

// Limit applies the rate limit to one endpoint. Different endpoint
// names track independent counters. When Redis is unreachable the
// request is allowed through; a cache outage must not lock everyone
// out of the console.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ExtractClientIP(r)

			count, err := rl.redis.IncrementRateLimit(r.Context(), ip, endpoint, rl.window)
			if err != nil {
				log.Error().Err(err).Str("ip", ip).Msg("Failed to check rate limit")
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(rl.requestsPerMin) {
				log.Warn().
					Str("ip", ip).
					Str("endpoint", endpoint).
					Int64("count", count).
					Msg("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))

				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.requestsPerMin-int(count)))

			next.ServeHTTP(w, r)
		})
	}
}
