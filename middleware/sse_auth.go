// middleware/sse_auth.go
package middleware

import (
	"os"
	"strings"

	"card-collect-system/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SSEAuthMiddleware authenticates EventSource connections, which cannot set
// headers: the Gateway appends its service token and the user context as
// query parameters instead. The live feed is admin-only, so the role check
// lives here too.
//
// Usage:
//
//	app.Get("/s/redemptions/live", middleware.SSEAuthMiddleware(), redemptionService.StreamRedemptionsSSE)
func SSEAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("CARD_SERVICE_TOKEN")
	if expectedToken == "" {
		logger.Fatal("CARD_SERVICE_TOKEN is not set, service cannot authenticate SSE clients")
	}

	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		userID := strings.TrimSpace(c.Query("user_id"))
		roles := ParseRoles(c.Query("roles"))

		if token == "" || userID == "" {
			logger.Warn("❌ SSE auth missing query params", zap.String("path", c.Path()))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token or user_id in query",
			})
		}

		if token != expectedToken {
			logger.Warn("❌ SSE auth invalid token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}

		isAdmin := false
		for _, r := range roles {
			if strings.EqualFold(r, "admin") {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		logger.Debug("✅ SSE client authenticated", zap.String("user_id", userID))
		return c.Next()
	}
}
