package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/teachreg/trs-api/internal/models"
)

// APIClientRepository loads registered API clients for token issue.
type APIClientRepository struct {
	db *sqlx.DB
}

// NewAPIClientRepository constructs an APIClientRepository.
func NewAPIClientRepository(db *sqlx.DB) *APIClientRepository {
	return &APIClientRepository{db: db}
}

// FindByID fetches a client by its identifier.
func (r *APIClientRepository) FindByID(ctx context.Context, id string) (*models.APIClient, error) {
	const query = `SELECT id, name, secret_hash, scopes, active, created_at FROM api_clients WHERE id = $1`
	var client models.APIClient
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	return &client, nil
}
