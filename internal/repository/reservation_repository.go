package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentora/booking_backend/internal/model"
	"github.com/mentora/booking_backend/internal/repository/base"
)

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новую бронь.
// created_at назначает БД в момент вставки (clock_timestamp), уже под
// блокировкой строки слота — порядок очереди совпадает с порядком допуска.
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	query := `
		INSERT INTO reservations (student_id, slot_id, status, problem_selected)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.DB(ctx).QueryRow(
		ctx, query,
		reservation.StudentID,
		reservation.SlotID,
		reservation.Status,
		reservation.ProblemSelected,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

// GetByID получает бронь по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `
		SELECT id, student_id, slot_id, status, problem_selected, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`

	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate получает бронь по ID с блокировкой строки
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `
		SELECT id, student_id, slot_id, status, problem_selected, created_at, updated_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`

	return r.scanOne(ctx, query, id)
}

func (r *ReservationRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.DB(ctx).QueryRow(ctx, query, args...).Scan(
		&reservation.ID,
		&reservation.StudentID,
		&reservation.SlotID,
		&reservation.Status,
		&reservation.ProblemSelected,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return &reservation, nil
}

// GetActiveByStudentAndDate получает активные брони студента на дату
// вместе со слотами (для проверки правил бронирования)
func (r *ReservationRepository) GetActiveByStudentAndDate(ctx context.Context, studentID int64, date time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT r.id, r.student_id, r.slot_id, r.status, r.problem_selected, r.created_at, r.updated_at,
		       s.id, s.teacher_id, s.slot_date, s.session_half, s.nominal_time, s.max_capacity, s.reserved_count, s.is_available, s.created_at
		FROM reservations r
		JOIN slots s ON s.id = r.slot_id
		WHERE r.student_id = $1
		  AND r.status = 'active'
		  AND s.slot_date = $2
		ORDER BY r.created_at, r.id
	`

	rows, err := r.DB(ctx).Query(ctx, query, studentID, date)
	if err != nil {
		return nil, fmt.Errorf("get active reservations by student and date: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		var reservation model.Reservation
		var slot model.Slot
		err := rows.Scan(
			&reservation.ID,
			&reservation.StudentID,
			&reservation.SlotID,
			&reservation.Status,
			&reservation.ProblemSelected,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
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
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservation.Slot = &slot
		reservations = append(reservations, &reservation)
	}

	return reservations, nil
}

// GetActiveBySlot получает активные брони слота в порядке очереди.
// Порядок тотальный: created_at, при равенстве — id.
func (r *ReservationRepository) GetActiveBySlot(ctx context.Context, slotID int64) ([]*model.Reservation, error) {
	query := `
		SELECT id, student_id, slot_id, status, problem_selected, created_at, updated_at
		FROM reservations
		WHERE slot_id = $1 AND status = 'active'
		ORDER BY created_at, id
	`

	rows, err := r.DB(ctx).Query(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("get active reservations by slot: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		var reservation model.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.StudentID,
			&reservation.SlotID,
			&reservation.Status,
			&reservation.ProblemSelected,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, &reservation)
	}

	return reservations, nil
}

// GetByStudentID получает все брони студента
func (r *ReservationRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Reservation, error) {
	query := `
		SELECT id, student_id, slot_id, status, problem_selected, created_at, updated_at
		FROM reservations
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB(ctx).Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get reservations by student: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		var reservation model.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.StudentID,
			&reservation.SlotID,
			&reservation.Status,
			&reservation.ProblemSelected,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, &reservation)
	}

	return reservations, nil
}

// UpdateStatus обновляет статус брони
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}

// UpdateSlot переносит бронь на другой слот.
// created_at не меняется: место в очереди нового слота определяется
// исходным временем создания брони.
func (r *ReservationRepository) UpdateSlot(ctx context.Context, id, newSlotID int64) error {
	query := `
		UPDATE reservations
		SET slot_id = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.DB(ctx).Exec(ctx, query, newSlotID, id)
	if err != nil {
		return fmt.Errorf("update reservation slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}

// SetProblemSelected отмечает что студент выбрал задачу
func (r *ReservationRepository) SetProblemSelected(ctx context.Context, id int64) error {
	query := `
		UPDATE reservations
		SET problem_selected = TRUE, updated_at = now()
		WHERE id = $1
	`

	result, err := r.DB(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("set problem selected: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}
