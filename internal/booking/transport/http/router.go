package http

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *BookingHandler) {
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Post("/bookings", h.Create)
}
