package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentora/booking_backend/internal/model"
	"github.com/mentora/booking_backend/internal/repository/base"
)

type TicketRepository struct {
	*base.Repository
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{Repository: base.NewRepository(pool)}
}

// GetByStudentID получает счёт билетов студента
func (r *TicketRepository) GetByStudentID(ctx context.Context, studentID int64) (*model.TicketAccount, error) {
	query := `
		SELECT student_id, balance, updated_at
		FROM ticket_accounts
		WHERE student_id = $1
	`

	return r.scanOne(ctx, query, studentID)
}

// GetByStudentIDForUpdate получает счёт с блокировкой строки.
// Проверка баланса и списание должны видеть одну и ту же строку.
func (r *TicketRepository) GetByStudentIDForUpdate(ctx context.Context, studentID int64) (*model.TicketAccount, error) {
	query := `
		SELECT student_id, balance, updated_at
		FROM ticket_accounts
		WHERE student_id = $1
		FOR UPDATE
	`

	return r.scanOne(ctx, query, studentID)
}

func (r *TicketRepository) scanOne(ctx context.Context, query string, args ...any) (*model.TicketAccount, error) {
	var account model.TicketAccount
	err := r.DB(ctx).QueryRow(ctx, query, args...).Scan(
		&account.StudentID,
		&account.Balance,
		&account.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket account: %w", err)
	}

	return &account, nil
}

// Debit списывает один билет.
// Охранное условие в WHERE не даёт балансу уйти в минус даже при гонке.
func (r *TicketRepository) Debit(ctx context.Context, studentID int64) error {
	query := `
		UPDATE ticket_accounts
		SET balance = balance - 1, updated_at = now()
		WHERE student_id = $1 AND balance > 0
	`

	result, err := r.DB(ctx).Exec(ctx, query, studentID)
	if err != nil {
		return fmt.Errorf("debit ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("insufficient ticket balance")
	}

	return nil
}

// Credit начисляет один билет с обрезкой по потолку.
// Начисление сверх потолка не ошибка: баланс просто остаётся на потолке.
func (r *TicketRepository) Credit(ctx context.Context, studentID int64) error {
	query := `
		UPDATE ticket_accounts
		SET balance = LEAST(balance + 1, $1), updated_at = now()
		WHERE student_id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, model.MaxTickets, studentID)
	if err != nil {
		return fmt.Errorf("credit ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ticket account not found")
	}

	return nil
}
