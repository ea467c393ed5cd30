package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/teachreg/trs-api/internal/models"
)

// OutboxRepository serves the relay's read-and-mark cycle. Messages are only
// ever inserted through the entity store composer, inside the business
// transaction they describe.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs an OutboxRepository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// ListUndispatched returns the oldest undispatched messages.
func (r *OutboxRepository) ListUndispatched(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf("SELECT id, message_name, payload, dispatched, dispatched_at, created_at FROM outbox_messages WHERE dispatched = FALSE ORDER BY created_at ASC LIMIT %d", limit)
	var messages []models.OutboxMessage
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("list undispatched outbox messages: %w", err)
	}
	return messages, nil
}

// MarkDispatched records that a message has been handed to the sink.
func (r *OutboxRepository) MarkDispatched(ctx context.Context, id string) error {
	const query = `UPDATE outbox_messages SET dispatched = TRUE, dispatched_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark outbox message dispatched: %w", err)
	}
	return nil
}
