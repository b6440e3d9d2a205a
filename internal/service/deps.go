package service

import (
	"context"
	"time"

	"github.com/mentora/booking_backend/internal/model"
)

// Интерфейсы хранилища объявлены на стороне потребителя.
// Продакшен-реализации — репозитории в internal/repository.

// TxRunner выполняет функцию атомарно: все мутации внутри fn
// коммитятся вместе или не применяются вовсе
type TxRunner interface {
	Serializable(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	GetByDate(ctx context.Context, date time.Time) ([]*model.Slot, error)
	IncrementReserved(ctx context.Context, slotID int64) error
	DecrementReserved(ctx context.Context, slotID int64) error
}

type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error)
	GetActiveByStudentAndDate(ctx context.Context, studentID int64, date time.Time) ([]*model.Reservation, error)
	GetActiveBySlot(ctx context.Context, slotID int64) ([]*model.Reservation, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error
	UpdateSlot(ctx context.Context, id, newSlotID int64) error
	SetProblemSelected(ctx context.Context, id int64) error
}

type TicketStore interface {
	GetByStudentID(ctx context.Context, studentID int64) (*model.TicketAccount, error)
	GetByStudentIDForUpdate(ctx context.Context, studentID int64) (*model.TicketAccount, error)
	Debit(ctx context.Context, studentID int64) error
	Credit(ctx context.Context, studentID int64) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByReservationID(ctx context.Context, reservationID int64) (*model.Session, error)
	Complete(ctx context.Context, id int64, completedAt time.Time) (bool, error)
	CompleteOverdue(ctx context.Context, now time.Time) (int64, error)
}

type ProblemStore interface {
	GetByID(ctx context.Context, id int64) (*model.Problem, error)
	GetActive(ctx context.Context) ([]*model.Problem, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
