package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teachreg/trs-api/internal/models"
)

// AuditRepository persists audit trail rows.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts one audit row. The id is assigned here.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO audit_logs (id, client_id, action, resource, resource_id, detail, ip_address, user_agent, created_at)
		VALUES (:id, :client_id, :action, :resource, :resource_id, :detail, :ip_address, :user_agent, NOW())`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return err
}
