// handlers/seasons.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSeasonRoutes(app *fiber.App, seasonService *services.SeasonService) {
	// 🔐 Any authenticated user may browse seasons
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/seasons", seasonService.GetSeasonsHandler)
	secured.Get("/seasons/:id", seasonService.GetSeasonHandler) // id or slug

	// 🔒 Admin-only lifecycle
	admin := secured.Group("/admin", middleware.RequireAdmin())

	admin.Post("/seasons", seasonService.CreateSeasonHandler)
	admin.Put("/seasons/:id", seasonService.UpdateSeasonHandler)
	admin.Delete("/seasons/:id", seasonService.DeleteSeasonHandler)
}
