package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewRouter собирает fiber-приложение с middleware и маршрутами
func NewRouter(
	logger *zap.Logger,
	jwtSecret string,
	reservationHandler *ReservationHandler,
	sessionHandler *SessionHandler,
) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(RequestID())
	app.Use(RequestLogger(logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", Auth(jwtSecret))

	api.Get("/slots", reservationHandler.ListSlots)

	api.Post("/reservations", reservationHandler.Create)
	api.Patch("/reservations/:id", reservationHandler.Modify)
	api.Delete("/reservations/:id", reservationHandler.Cancel)

	api.Post("/reservations/:id/session", sessionHandler.SelectProblem)
	api.Get("/reservations/:id/status", sessionHandler.Status)
	api.Get("/reservations/:id/queue-position", sessionHandler.QueuePosition)

	api.Get("/me/reservations", reservationHandler.ListMine)
	api.Get("/me/tickets", reservationHandler.TicketBalance)

	return app
}
