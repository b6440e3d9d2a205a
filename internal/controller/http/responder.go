package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mentora/booking_backend/internal/service"
)

// respondError переводит бизнес-ошибки сервисов в HTTP-статусы.
// Отказы правил — 422 с подсчётами в detail, конфликты состояния — 409.
func respondError(c *fiber.Ctx, err error) error {
	var code int

	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrProblemNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNotInQueue):
		code = fiber.StatusNotFound

	case errors.Is(err, service.ErrInsufficientPermission):
		code = fiber.StatusForbidden

	case errors.Is(err, service.ErrSlotFull),
		errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrReservationNotActive),
		errors.Is(err, service.ErrDuplicateReservation),
		errors.Is(err, service.ErrSessionExists),
		errors.Is(err, service.ErrModifyWindowClosed),
		errors.Is(err, service.ErrReservationNotToday),
		errors.Is(err, service.ErrProblemNotActive):
		code = fiber.StatusConflict

	case errors.Is(err, service.ErrInsufficientTickets),
		errors.Is(err, service.ErrDailyLimitExceeded),
		errors.Is(err, service.ErrCrossSessionViolation),
		errors.Is(err, service.ErrTeacherLimitExceeded):
		code = fiber.StatusUnprocessableEntity

	default:
		// Транзиентный сбой после исчерпания повторов либо ошибка БД
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "temporarily unavailable",
		})
	}

	return c.Status(code).JSON(fiber.Map{
		"error":  unwrapSentinel(err).Error(),
		"detail": err.Error(),
	})
}

// unwrapSentinel достаёт базовую бизнес-ошибку из обёртки с подсчётами
func unwrapSentinel(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
