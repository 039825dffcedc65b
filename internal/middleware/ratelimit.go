package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salesync/field-api/internal/config"
)

// RateLimit returns a Redis-backed fixed-window request limiter.  Requests
// are counted per client (user id when authenticated, remote IP otherwise)
// per window; the first request of a window creates the counter with a TTL
// equal to the window so state cleans itself up.  When the limiter is
// disabled or Redis is unavailable the middleware is a pass-through: rate
// limiting is protective, never load-bearing.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	// INCR+EXPIRE must be atomic so two first-requests cannot race and
	// leave a counter without a TTL.
	script := redis.NewScript(`
        local n = redis.call('INCR', KEYS[1])
        if n == 1 then
            redis.call('PEXPIRE', KEYS[1], ARGV[1])
        end
        local ttl = redis.call('PTTL', KEYS[1])
        return {n, ttl}
    `)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:%s", cfg.Prefix, clientKey(c))
			res, err := script.Run(c.Request().Context(), rdb, []string{key},
				cfg.Window.Milliseconds()).Int64Slice()
			if err != nil || len(res) != 2 {
				// Redis trouble: let the request through.
				return next(c)
			}
			count, ttlMs := res[0], res[1]
			if count > int64(cfg.Limit) {
				retry := time.Duration(ttlMs) * time.Millisecond
				c.Response().Header().Set("Retry-After",
					strconv.Itoa(int(retry.Round(time.Second).Seconds())))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// clientKey identifies the caller for rate limiting purposes: the
// authenticated user id when available, the remote IP otherwise.
func clientKey(c echo.Context) string {
	if claims, ok := ClaimsFrom(c); ok {
		return "u:" + claims.UserID.String()
	}
	return "ip:" + c.RealIP()
}
