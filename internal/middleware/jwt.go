package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salesync/field-api/internal/token"
)

// ClaimsKey is the context key under which JWTAuth stores the decoded
// claim bundle.  Downstream middleware and handlers read it via
// c.Get(ClaimsKey).(*token.Claims).
const ClaimsKey = "claims"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the decoded claim bundle into the request context.  The
// provided secret must match the one used when issuing tokens.  Requests
// without a valid token are rejected with 401 before any domain logic
// executes.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := token.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom extracts the claim bundle stored by JWTAuth.  The boolean is
// false when the middleware did not run or stored an unexpected type.
func ClaimsFrom(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*token.Claims)
	return claims, ok
}
