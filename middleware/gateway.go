// middleware/gateway.go
package middleware

import (
	"os"
	"strings"

	"card-collect-system/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway. Every
// request must carry it: this service is never exposed directly.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("CARD_SERVICE_TOKEN")
	if expectedToken == "" {
		logger.Fatal("CARD_SERVICE_TOKEN is not set, service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.Warn("🚫 gateway token missing", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Parse "Bearer <token>"; fall back to the raw value if the Gateway
		// sends the token bare.
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			logger.Warn("❌ invalid gateway token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
