package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mentora/booking_backend/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
	validate *validator.Validate
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

type selectProblemRequest struct {
	ProblemID int64 `json:"problem_id" validate:"required,gt=0"`
}

// SelectProblem обрабатывает POST /api/reservations/:id/session
func (h *SessionHandler) SelectProblem(c *fiber.Ctx) error {
	reservationID, err := c.ParamsInt("id")
	if err != nil || reservationID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reservation id")
	}

	var req selectProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	session, err := h.sessions.SelectProblem(c.Context(), callerID(c), int64(reservationID), req.ProblemID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Status обрабатывает GET /api/reservations/:id/status
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	reservationID, err := c.ParamsInt("id")
	if err != nil || reservationID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reservation id")
	}

	status, err := h.sessions.Status(c.Context(), callerID(c), int64(reservationID))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(status)
}

// QueuePosition обрабатывает GET /api/reservations/:id/queue-position
func (h *SessionHandler) QueuePosition(c *fiber.Ctx) error {
	reservationID, err := c.ParamsInt("id")
	if err != nil || reservationID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reservation id")
	}

	position, err := h.sessions.QueuePosition(c.Context(), callerID(c), int64(reservationID))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"queue_position": position})
}
