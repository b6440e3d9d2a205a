package model

import "time"

type SessionStatus string

const (
	SessionStatusActive          SessionStatus = "active"           // Сессия идёт или ещё не началась
	SessionStatusFeedbackPending SessionStatus = "feedback_pending" // Ожидает оценки учителя
	SessionStatusCompleted       SessionStatus = "completed"        // Завершена
)

type Session struct {
	ID            int64         `json:"id"`
	ReservationID int64         `json:"reservation_id"` // Не больше одной сессии на бронь
	ProblemID     int64         `json:"problem_id"`
	Status        SessionStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at"` // указатель - может быть nil
}
