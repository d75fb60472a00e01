package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// RequireRole lets the request through only when the role set by Auth is one
// of roles. A caller without a role never passed Auth and gets a 401; a known
// caller with another role gets domain.ErrForbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}
			if !slices.Contains(roles, role) {
				return fmt.Errorf("%w: role %s cannot access %s", domain.ErrForbidden, role, c.Path())
			}
			return next(c)
		}
	}
}
