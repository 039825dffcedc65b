package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesync/field-api/internal/model"
)

// RequireRole enforces that the authenticated user holds min or any more
// senior role.  "agent required" therefore admits every role, while
// "national_manager required" admits only national managers, admins and
// super admins, matching the seniority ladder on model.Role.  Routes that
// need several requirements express them as a single call with the
// strictest minimum (logical AND), never as stacked independent gates.
// It assumes JWTAuth already stored the claim bundle in the context.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok || !claims.AtLeast(min) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}

// RequireAnyRole enforces an exact role-set check: the request is allowed
// when the intersection of held roles and the given set is non-empty.
// Used for admin-only and super-admin-only routes where seniority
// expansion does not apply.
func RequireAnyRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			for _, held := range claims.Roles {
				if allowed[held] {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
	}
}
