package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salesync/field-api/internal/config"
)

// cacheWriter captures the response body and status while forwarding to
// the client, so a successful response can be stored after the handler
// runs.
type cacheWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *cacheWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	if w.buf.Len()+len(b) <= w.limit {
		w.buf.Write(b)
	} else {
		// Over the size cap: poison the buffer so the entry is skipped.
		w.buf.Reset()
		w.limit = 0
	}
	return w.ResponseWriter.Write(b)
}

// CacheAnalytics returns a middleware that caches successful JSON
// responses of analytics GET endpoints in Redis.  The key includes the
// effective tenant and, when present, the requesting user, so one tenant's
// cached report can never be served to another.  Analytics reads tolerate
// staleness up to the configured TTL.  With caching disabled or Redis
// unavailable the middleware is a pass-through.
func CacheAnalytics(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			tenantID, ok := TenantFrom(c)
			if !ok {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, tenantID.String(), c)

			ctx := c.Request().Context()
			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &cacheWriter{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == 0 || cw.status == http.StatusOK {
				if cw.buf.Len() > 0 {
					// Best effort; a failed SET only means a cache miss later.
					_ = rdb.Set(ctx, key, cw.buf.Bytes(), cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

// cacheKey builds a stable key from tenant, route and query string.  The
// query is hashed to keep keys short regardless of filter combinations.
func cacheKey(prefix, tenant string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%s:%s:%s", prefix, tenant, c.Path(), hex.EncodeToString(sum[:8]))
}
