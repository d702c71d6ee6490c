// handlers/collection.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCollectionRoutes(app *fiber.App, redemptionService *services.RedemptionService) {
	// 🔐 Owners read their own rows only; cross-user visibility goes
	// through the ranking projection instead.
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/collection", redemptionService.GetMyCollectionHandler)
	secured.Get("/collection/progress", redemptionService.GetCollectionProgressHandler)
}
