// handlers/events.go
package handlers

import (
	"card-collect-system/middleware"
	"card-collect-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService) {
	// 🔐 Any authenticated user: public DTOs, no redemption codes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/events", eventService.GetPublicEventsHandler)
	secured.Get("/events/:id", eventService.GetPublicEventByIDHandler)

	// 🔒 Admin-only: full records including codes
	admin := secured.Group("/admin", middleware.RequireAdmin())

	admin.Get("/events", eventService.GetAllEventsAdminHandler)
	admin.Post("/events", eventService.CreateEventHandler)
	admin.Put("/events/:id", eventService.UpdateEventHandler)
	admin.Delete("/events/:id", eventService.DeleteEventHandler)
	admin.Get("/events/:id/qr", eventService.EventQRHandler)
}
