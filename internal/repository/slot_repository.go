package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentora/booking_backend/internal/model"
	"github.com/mentora/booking_backend/internal/repository/base"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (teacher_id, slot_date, session_half, nominal_time, max_capacity, reserved_count, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.SlotDate,
		slot.SessionHalf,
		slot.NominalTime,
		slot.MaxCapacity,
		slot.ReservedCount,
		slot.IsAvailable,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `
		SELECT id, teacher_id, slot_date, session_half, nominal_time, max_capacity, reserved_count, is_available, created_at
		FROM slots
		WHERE id = $1
	`

	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate получает слот по ID с блокировкой строки.
// Проверка вместимости и инкремент должны видеть одну и ту же строку.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	query := `
		SELECT id, teacher_id, slot_date, session_half, nominal_time, max_capacity, reserved_count, is_available, created_at
		FROM slots
		WHERE id = $1
		FOR UPDATE
	`

	return r.scanOne(ctx, query, id)
}

func (r *SlotRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Slot, error) {
	var slot model.Slot
	err := r.DB(ctx).QueryRow(ctx, query, args...).Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.SlotDate,
		&slot.SessionHalf,
		&slot.NominalTime,
		&slot.MaxCapacity,
		&slot.ReservedCount,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}

	return &slot, nil
}

// GetByDate получает все слоты на дату
func (r *SlotRepository) GetByDate(ctx context.Context, date time.Time) ([]*model.Slot, error) {
	query := `
		SELECT id, teacher_id, slot_date, session_half, nominal_time, max_capacity, reserved_count, is_available, created_at
		FROM slots
		WHERE slot_date = $1
		ORDER BY nominal_time, id
	`

	rows, err := r.DB(ctx).Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get slots by date: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.TeacherID,
			&slot.SlotDate,
			&slot.SessionHalf,
			&slot.NominalTime,
			&slot.MaxCapacity,
			&slot.ReservedCount,
			&slot.IsAvailable,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

// IncrementReserved занимает место в слоте.
// Охранное условие в WHERE не даёт превысить вместимость даже при гонке.
func (r *SlotRepository) IncrementReserved(ctx context.Context, slotID int64) error {
	query := `
		UPDATE slots
		SET reserved_count = reserved_count + 1
		WHERE id = $1 AND reserved_count < max_capacity AND is_available
	`

	result, err := r.DB(ctx).Exec(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("increment reserved: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot is full or unavailable")
	}

	return nil
}

// DecrementReserved освобождает место в слоте
func (r *SlotRepository) DecrementReserved(ctx context.Context, slotID int64) error {
	query := `
		UPDATE slots
		SET reserved_count = reserved_count - 1
		WHERE id = $1 AND reserved_count > 0
	`

	result, err := r.DB(ctx).Exec(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("decrement reserved: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found or empty")
	}

	return nil
}

// SetAvailability открывает или закрывает слот (перерыв учителя)
func (r *SlotRepository) SetAvailability(ctx context.Context, slotID int64, available bool) error {
	query := `
		UPDATE slots
		SET is_available = $1
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, available, slotID)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}
