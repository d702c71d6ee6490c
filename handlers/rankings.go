// handlers/rankings.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRankingRoutes(app *fiber.App, rankingService *services.RankingService) {
	// 🔐 The board is visible to every authenticated user; rows carry the
	// privacy-filtered projection only.
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/rankings", rankingService.GetRankingHandler)

	// 🔒 Aggregate statistics for the staff dashboard
	admin := secured.Group("/admin", middleware.RequireAdmin())

	admin.Get("/stats", rankingService.AdminStatsHandler)
}
