package model

import "time"

// MaxTickets жёсткий потолок баланса билетов.
// Начисления сверх потолка обрезаются, а не отклоняются.
const MaxTickets = 10

type TicketAccount struct {
	StudentID int64     `json:"student_id"`
	Balance   int       `json:"balance"` // Всегда в диапазоне [0, MaxTickets]
	UpdatedAt time.Time `json:"updated_at"`
}
