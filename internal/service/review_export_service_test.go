package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/pkg/storage"
)

type fakeReviewTaskLister struct {
	tasks []models.ReviewTask
	calls int
}

func (f *fakeReviewTaskLister) List(ctx context.Context, filter models.ReviewTaskFilter) ([]models.ReviewTask, int, error) {
	f.calls++
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(f.tasks) {
		return nil, len(f.tasks), nil
	}
	end := start + filter.PageSize
	if end > len(f.tasks) {
		end = len(f.tasks)
	}
	return f.tasks[start:end], len(f.tasks), nil
}

func reviewTask(title string) models.ReviewTask {
	return models.ReviewTask{
		ID:        uuid.New(),
		TeacherID: uuid.New(),
		Category:  models.ReviewCategoryDuplicateTeacher,
		Title:     title,
		CreatedAt: time.Date(2026, time.August, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestReviewExportCSVContent(t *testing.T) {
	lister := &fakeReviewTaskLister{tasks: []models.ReviewTask{
		reviewTask("Potential duplicate teacher record"),
	}}
	svc := NewReviewExportService(lister, nil, nil, nil)

	out, err := svc.Generate(context.Background(), models.ReviewTaskFilter{}, ReviewExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.True(t, strings.HasPrefix(out.Filename, "review_tasks_"))
	assert.True(t, strings.HasSuffix(out.Filename, ".csv"))

	content := string(out.Payload)
	assert.Contains(t, content, "Task ID,Teacher ID,Category,Title,Description,Completed,Raised At")
	assert.Contains(t, content, "Potential duplicate teacher record")
	assert.Contains(t, content, lister.tasks[0].ID.String())
	assert.Contains(t, content, "2026-08-01T09:30:00Z")
}

func TestReviewExportPagesThroughAllTasks(t *testing.T) {
	var tasks []models.ReviewTask
	for i := 0; i < 450; i++ {
		tasks = append(tasks, reviewTask("task"))
	}
	lister := &fakeReviewTaskLister{tasks: tasks}
	svc := NewReviewExportService(lister, nil, nil, nil)

	out, err := svc.Generate(context.Background(), models.ReviewTaskFilter{}, ReviewExportCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, lister.calls)
	// Header plus one line per task, with a trailing newline.
	assert.Equal(t, 451, strings.Count(string(out.Payload), "\n"))
}

func TestReviewExportPDF(t *testing.T) {
	lister := &fakeReviewTaskLister{tasks: []models.ReviewTask{reviewTask("task")}}
	svc := NewReviewExportService(lister, nil, nil, nil)

	out, err := svc.Generate(context.Background(), models.ReviewTaskFilter{}, ReviewExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, strings.HasPrefix(string(out.Payload), "%PDF"))
}

func TestReviewExportUnsupportedFormat(t *testing.T) {
	svc := NewReviewExportService(&fakeReviewTaskLister{}, nil, nil, nil)

	_, err := svc.Generate(context.Background(), models.ReviewTaskFilter{}, "xlsx")
	assert.Error(t, err)
}

func TestReviewExportStoreAndRedeemLink(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	lister := &fakeReviewTaskLister{tasks: []models.ReviewTask{reviewTask("task")}}
	svc := NewReviewExportService(lister, store, signer, nil)

	link, err := svc.StoreExport(context.Background(), models.ReviewTaskFilter{}, ReviewExportCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.True(t, strings.HasSuffix(link.Path, ".csv"))

	file, err := svc.OpenExport(link.Token)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "task")
}

func TestReviewExportOpenRejectsForgedToken(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewReviewExportService(&fakeReviewTaskLister{}, store, signer, nil)

	_, err = svc.OpenExport("forged.token.value")
	assert.Error(t, err)
}

func TestReviewExportStoreUnconfigured(t *testing.T) {
	svc := NewReviewExportService(&fakeReviewTaskLister{}, nil, nil, nil)

	_, err := svc.StoreExport(context.Background(), models.ReviewTaskFilter{}, ReviewExportCSV)
	assert.Error(t, err)
}
