package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachreg/trs-api/internal/models"
)

func TestReviewTaskRepositoryList(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReviewTaskRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "category", "title", "description", "completed", "created_at", "updated_at"}).
		AddRow(uuid.New().String(), uuid.New().String(), "Potential duplicate teacher", "Potential duplicate teacher record", "details", false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, category, title, description, completed, created_at, updated_at FROM review_tasks WHERE 1=1 ORDER BY created_at ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_tasks WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	tasks, total, err := repo.List(context.Background(), models.ReviewTaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewTaskRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReviewTaskRepository(db)

	completed := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM review_tasks WHERE 1=1 AND category = $1 AND completed = $2")).
		WithArgs(string(models.ReviewCategoryActiveSanctions), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "category", "title", "description", "completed", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_tasks WHERE 1=1 AND category = $1 AND completed = $2")).
		WithArgs(string(models.ReviewCategoryActiveSanctions), false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.ReviewTaskFilter{
		Category:  string(models.ReviewCategoryActiveSanctions),
		Completed: &completed,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewTaskRepositoryComplete(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReviewTaskRepository(db)

	id := uuid.New().String()
	mock.ExpectExec("UPDATE review_tasks SET completed = TRUE").
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Complete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
