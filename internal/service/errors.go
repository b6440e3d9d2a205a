package service

import "errors"

// Бизнес-ошибки допуска. Каждая — детерминированный отказ без побочных
// эффектов: ни счётчики слотов, ни баланс билетов при отказе не меняются.
var (
	ErrSlotNotFound          = errors.New("slot not found")
	ErrSlotFull              = errors.New("slot is full")
	ErrSlotUnavailable       = errors.New("slot is unavailable")
	ErrStudentNotFound       = errors.New("student not found")
	ErrInsufficientTickets   = errors.New("insufficient ticket balance")
	ErrDailyLimitExceeded    = errors.New("daily reservation limit exceeded")
	ErrCrossSessionViolation = errors.New("reservation crosses AM/PM boundary for the day")
	ErrTeacherLimitExceeded  = errors.New("per-teacher reservation limit exceeded")
	ErrDuplicateReservation  = errors.New("student already holds an active reservation on this slot")

	ErrReservationNotFound    = errors.New("reservation not found")
	ErrReservationNotActive   = errors.New("reservation is not active")
	ErrInsufficientPermission = errors.New("no permission for this reservation")
	ErrModifyWindowClosed     = errors.New("modification window is closed")

	ErrNotInQueue = errors.New("reservation is not in the slot queue")

	ErrProblemNotFound     = errors.New("problem not found")
	ErrProblemNotActive    = errors.New("problem is not active")
	ErrSessionExists       = errors.New("session already exists for this reservation")
	ErrReservationNotToday = errors.New("reservation is not for today")
	ErrSessionNotFound     = errors.New("session not found")
)
