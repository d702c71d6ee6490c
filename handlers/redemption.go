// handlers/redemption.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRedemptionRoutes(app *fiber.App, redemptionService *services.RedemptionService) {
	// 📡 Live feed first: EventSource cannot set headers, so this route
	// authenticates via query token and must be matched before the
	// header-based user context middleware.
	app.Get("/s/redemptions/live", middleware.SSEAuthMiddleware(), redemptionService.StreamRedemptionsSSE)

	// 🔐 Secured routes require user context (userID, roles)
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/redeem", redemptionService.RedeemCardHandler)
}
