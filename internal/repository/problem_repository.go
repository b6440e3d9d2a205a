package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentora/booking_backend/internal/model"
	"github.com/mentora/booking_backend/internal/repository/base"
)

type ProblemRepository struct {
	*base.Repository
}

func NewProblemRepository(pool *pgxpool.Pool) *ProblemRepository {
	return &ProblemRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает задачу по ID
func (r *ProblemRepository) GetByID(ctx context.Context, id int64) (*model.Problem, error) {
	query := `
		SELECT id, title, preview_lead_minutes, limit_minutes, is_active, created_at
		FROM problems
		WHERE id = $1
	`

	var problem model.Problem
	err := r.DB(ctx).QueryRow(ctx, query, id).Scan(
		&problem.ID,
		&problem.Title,
		&problem.PreviewLeadMinutes,
		&problem.LimitMinutes,
		&problem.IsActive,
		&problem.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get problem by id: %w", err)
	}

	return &problem, nil
}

// GetActive получает все активные задачи
func (r *ProblemRepository) GetActive(ctx context.Context) ([]*model.Problem, error) {
	query := `
		SELECT id, title, preview_lead_minutes, limit_minutes, is_active, created_at
		FROM problems
		WHERE is_active
		ORDER BY id
	`

	rows, err := r.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active problems: %w", err)
	}
	defer rows.Close()

	var problems []*model.Problem
	for rows.Next() {
		var problem model.Problem
		err := rows.Scan(
			&problem.ID,
			&problem.Title,
			&problem.PreviewLeadMinutes,
			&problem.LimitMinutes,
			&problem.IsActive,
			&problem.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		problems = append(problems, &problem)
	}

	return problems, nil
}
