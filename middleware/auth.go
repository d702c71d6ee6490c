// middleware/auth.go
package middleware

import (
	"strings"

	"card-collect-system/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserContextMiddleware extracts the user identity and roles the Gateway
// forwarded. Applied to the whole /s group.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		// EventSource cannot set headers; the live feed authenticates via
		// SSEAuthMiddleware on the route itself.
		if userID == "" && strings.HasSuffix(c.Path(), "/redemptions/live") {
			return c.Next()
		}

		if userID == "" {
			logger.Warn("❌ X-User-ID missing on secured route", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", ParseRoles(rolesStr))

		logger.Debug("👤 user context",
			zap.String("user_id", userID),
			zap.String("roles", rolesStr),
			zap.String("path", c.Path()),
		)

		return c.Next()
	}
}

// RequireAdmin gates a route group on the roles the Gateway forwarded.
// Must run after UserContextMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			if strings.EqualFold(r, "admin") {
				return c.Next()
			}
		}
		logger.Warn("🚫 admin role required",
			zap.String("path", c.Path()),
			zap.Strings("roles", roles),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}
}

// ParseRoles splits the comma-separated X-User-Roles header.
func ParseRoles(rolesStr string) []string {
	var roles []string
	for _, r := range strings.Split(rolesStr, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
