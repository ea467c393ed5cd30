package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrCodeNotFound reports a reference code with no seeded row. It is the
// only lookup outcome besides success; the resolver turns it into a typed
// failure reason rather than an error.
var ErrCodeNotFound = errors.New("reference code not found")

// ReferenceRepository resolves human-entered codes to seeded reference row
// ids. The tables are append-only and seeded at startup, which is what makes
// found-entry caching safe upstream.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) lookup(ctx context.Context, query, code string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrCodeNotFound
		}
		return uuid.Nil, fmt.Errorf("reference lookup %q: %w", code, err)
	}
	return id, nil
}

// FindProviderByUKPRN resolves an active ITT provider.
func (r *ReferenceRepository) FindProviderByUKPRN(ctx context.Context, ukprn string) (uuid.UUID, error) {
	const query = `SELECT id FROM providers WHERE ukprn = $1 AND active = TRUE`
	return r.lookup(ctx, query, ukprn)
}

// FindCountryByCode resolves a country reference row.
func (r *ReferenceRepository) FindCountryByCode(ctx context.Context, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM countries WHERE UPPER(code) = UPPER($1)`
	return r.lookup(ctx, query, code)
}

// FindSubjectByCode resolves an ITT/HE subject, consulting the externally
// supplied alias table so legacy HESA codes keep resolving.
func (r *ReferenceRepository) FindSubjectByCode(ctx context.Context, code string) (uuid.UUID, error) {
	const query = `SELECT s.id FROM subjects s
		LEFT JOIN subject_aliases a ON a.subject_id = s.id
		WHERE UPPER(s.code) = UPPER($1) OR UPPER(a.code) = UPPER($1)
		LIMIT 1`
	return r.lookup(ctx, query, code)
}

// FindHEQualificationByCode resolves a higher-education qualification.
func (r *ReferenceRepository) FindHEQualificationByCode(ctx context.Context, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM he_qualifications WHERE UPPER(code) = UPPER($1)`
	return r.lookup(ctx, query, code)
}

// FindTeacherStatusByCode resolves a teacher-status reference row.
func (r *ReferenceRepository) FindTeacherStatusByCode(ctx context.Context, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM teacher_statuses WHERE code = $1`
	return r.lookup(ctx, query, code)
}

// FindEarlyYearsStatusByCode resolves an early-years-status reference row.
func (r *ReferenceRepository) FindEarlyYearsStatusByCode(ctx context.Context, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM early_years_statuses WHERE code = $1`
	return r.lookup(ctx, query, code)
}
