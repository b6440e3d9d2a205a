package model

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"    // Активная бронь
	ReservationStatusCancelled ReservationStatus = "cancelled" // Отменена (билет возвращён)
	ReservationStatusCompleted ReservationStatus = "completed" // Сессия завершена
)

type Reservation struct {
	ID              int64             `json:"id"`
	StudentID       int64             `json:"student_id"`
	SlotID          int64             `json:"slot_id"`
	Status          ReservationStatus `json:"status"`
	ProblemSelected bool              `json:"problem_selected"` // Студент уже выбрал задачу
	CreatedAt       time.Time         `json:"created_at"`       // Назначается при коммите, ключ порядка очереди
	UpdatedAt       time.Time         `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Slot *Slot `json:"slot,omitempty"`
}
