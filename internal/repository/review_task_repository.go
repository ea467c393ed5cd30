package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/teachreg/trs-api/internal/models"
)

// ReviewTaskRepository reads review tasks for listing and export. Tasks are
// written through the entity store composer so they commit with the mutation
// that raised them; this repository only serves the review team's read side.
type ReviewTaskRepository struct {
	db *sqlx.DB
}

// NewReviewTaskRepository constructs a ReviewTaskRepository.
func NewReviewTaskRepository(db *sqlx.DB) *ReviewTaskRepository {
	return &ReviewTaskRepository{db: db}
}

// List returns review tasks matching filters plus the total count.
func (r *ReviewTaskRepository) List(ctx context.Context, filter models.ReviewTaskFilter) ([]models.ReviewTask, int, error) {
	base := "FROM review_tasks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)+1))
		args = append(args, *filter.Completed)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, teacher_id, category, title, description, completed, created_at, updated_at %s ORDER BY created_at ASC LIMIT %d OFFSET %d", base, size, offset)
	var tasks []models.ReviewTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list review tasks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count review tasks: %w", err)
	}

	return tasks, total, nil
}

// Complete marks a task done.
func (r *ReviewTaskRepository) Complete(ctx context.Context, id string) error {
	const query = `UPDATE review_tasks SET completed = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete review task: %w", err)
	}
	return nil
}
