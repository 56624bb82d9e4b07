package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// RequirePermission gates a route on the authenticated principal's derived
// capability set. Resolution fails open to the default user grant, so a
// broken role read denies rather than errors.
func RequirePermission(resolver *service.RoleResolver, allowed func(domain.Permissions) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principalID, _ := c.Get("principal_id").(string)
			if principalID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
			}

			perms := resolver.EffectivePermissions(c.Request().Context(), principalID)
			if !allowed(perms) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
