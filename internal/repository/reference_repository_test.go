package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferenceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReferenceRepositoryFindProviderByUKPRN(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM providers WHERE ukprn = $1 AND active = TRUE")).
		WithArgs("10007799").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.FindProviderByUKPRN(context.Background(), "10007799")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryUnknownCode(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	mock.ExpectQuery("SELECT id FROM countries").
		WithArgs("XX").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindCountryByCode(context.Background(), "XX")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryFindSubjectConsultsAliases(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT s.id FROM subjects s").
		WithArgs("100403").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.FindSubjectByCode(context.Background(), "100403")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryFindTeacherStatusByCode(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT id FROM teacher_statuses WHERE code = ").
		WithArgs("211").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.FindTeacherStatusByCode(context.Background(), "211")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
