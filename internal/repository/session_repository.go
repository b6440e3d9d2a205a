package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentora/booking_backend/internal/model"
	"github.com/mentora/booking_backend/internal/repository/base"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт сессию для брони
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (reservation_id, problem_id, status, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		session.ReservationID,
		session.ProblemID,
		session.Status,
		session.StartedAt,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByReservationID получает сессию брони
func (r *SessionRepository) GetByReservationID(ctx context.Context, reservationID int64) (*model.Session, error) {
	query := `
		SELECT id, reservation_id, problem_id, status, started_at, completed_at
		FROM sessions
		WHERE reservation_id = $1
	`

	var session model.Session
	err := r.DB(ctx).QueryRow(ctx, query, reservationID).Scan(
		&session.ID,
		&session.ReservationID,
		&session.ProblemID,
		&session.Status,
		&session.StartedAt,
		&session.CompletedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by reservation: %w", err)
	}

	return &session, nil
}

// Complete идемпотентно завершает сессию (compare-and-set по статусу).
// Возвращает true если переход выполнился этим вызовом.
func (r *SessionRepository) Complete(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET status = 'completed', completed_at = $1
		WHERE id = $2 AND status <> 'completed'
	`

	result, err := r.DB(ctx).Exec(ctx, query, completedAt, id)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// CompleteOverdue завершает все просроченные сессии одним проходом.
// Момент завершения — расчётный конец окна, а не время прохода.
func (r *SessionRepository) CompleteOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE sessions s
		SET status = 'completed',
		    completed_at = s.started_at + make_interval(mins => p.limit_minutes)
		FROM problems p
		WHERE p.id = s.problem_id
		  AND s.status <> 'completed'
		  AND s.started_at + make_interval(mins => p.limit_minutes) <= $1
	`

	result, err := r.DB(ctx).Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete overdue sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
