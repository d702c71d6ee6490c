// handlers/collectors.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCollectorRoutes(app *fiber.App, collectorService *services.CollectorService) {
	// 🔐 Public profile fields for any authenticated user; /me is the only
	// route that returns private fields, and only the owner's own.
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Fixed paths before :id, or the param route swallows them.
	secured.Get("/collectors/me", collectorService.GetMeHandler)
	secured.Get("/collectors/search", collectorService.SearchCollectorsHandler)
	secured.Get("/collectors/:id", collectorService.GetCollectorHandler)
}
