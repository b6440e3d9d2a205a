package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mentora/booking_backend/internal/service"
)

type ReservationHandler struct {
	reservations *service.ReservationService
	validate     *validator.Validate
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		validate:     validator.New(),
	}
}

type createReservationRequest struct {
	SlotID int64 `json:"slot_id" validate:"required,gt=0"`
}

// Create обрабатывает POST /api/reservations
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.reservations.Create(c.Context(), callerID(c), req.SlotID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

type modifyReservationRequest struct {
	NewSlotID int64 `json:"new_slot_id" validate:"required,gt=0"`
}

// Modify обрабатывает PATCH /api/reservations/:id
func (h *ReservationHandler) Modify(c *fiber.Ctx) error {
	reservationID, err := c.ParamsInt("id")
	if err != nil || reservationID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reservation id")
	}

	var req modifyReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.reservations.Modify(c.Context(), int64(reservationID), req.NewSlotID, callerID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// Cancel обрабатывает DELETE /api/reservations/:id
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	reservationID, err := c.ParamsInt("id")
	if err != nil || reservationID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reservation id")
	}

	result, err := h.reservations.Cancel(c.Context(), int64(reservationID), callerID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// ListMine обрабатывает GET /api/me/reservations
func (h *ReservationHandler) ListMine(c *fiber.Ctx) error {
	reservations, err := h.reservations.ListByStudent(c.Context(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"reservations": reservations})
}

// TicketBalance обрабатывает GET /api/me/tickets
func (h *ReservationHandler) TicketBalance(c *fiber.Ctx) error {
	balance, err := h.reservations.TicketBalance(c.Context(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance})
}

// ListSlots обрабатывает GET /api/slots?date=YYYY-MM-DD
func (h *ReservationHandler) ListSlots(c *fiber.Ctx) error {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	slots, err := h.reservations.ListSlots(c.Context(), date)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}
