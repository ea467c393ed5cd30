package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/pkg/export"
	"github.com/teachreg/trs-api/pkg/storage"
)

type reviewTaskLister interface {
	List(ctx context.Context, filter models.ReviewTaskFilter) ([]models.ReviewTask, int, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReviewExportFormat selects the rendered output format.
type ReviewExportFormat string

const (
	ReviewExportCSV ReviewExportFormat = "csv"
	ReviewExportPDF ReviewExportFormat = "pdf"
)

// ReviewExport is a rendered review-task export.
type ReviewExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReviewExportLink points at a stored export. The token is the download
// credential; no API token is needed to redeem it.
type ReviewExportLink struct {
	Path      string    `json:"path"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReviewExportService renders the open review queue for the support team.
type ReviewExportService struct {
	tasks  reviewTaskLister
	csv    csvRenderer
	pdf    pdfRenderer
	store  exportFileStore
	signer *storage.SignedURLSigner
	logger *zap.Logger
}

// NewReviewExportService constructs a ReviewExportService. store and signer
// may be nil, which disables stored exports with download links; direct
// streaming still works.
func NewReviewExportService(tasks reviewTaskLister, store exportFileStore, signer *storage.SignedURLSigner, logger *zap.Logger) *ReviewExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewExportService{
		tasks:  tasks,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		store:  store,
		signer: signer,
		logger: logger,
	}
}

// Generate renders the tasks matching filter into the requested format.
func (s *ReviewExportService) Generate(ctx context.Context, filter models.ReviewTaskFilter, format ReviewExportFormat) (*ReviewExport, error) {
	// Export is unpaged: pull everything matching the filter.
	filter.Page = 1
	filter.PageSize = 200

	var all []models.ReviewTask
	for {
		page, total, err := s.tasks.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			break
		}
		filter.Page++
	}

	dataset := reviewTaskDataset(all)
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case ReviewExportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, fmt.Errorf("render review csv: %w", err)
		}
		return &ReviewExport{
			Filename:    fmt.Sprintf("review_tasks_%s.csv", timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ReviewExportPDF:
		payload, err := s.pdf.Render(dataset, "Review Tasks")
		if err != nil {
			return nil, fmt.Errorf("render review pdf: %w", err)
		}
		return &ReviewExport{
			Filename:    fmt.Sprintf("review_tasks_%s.pdf", timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// StoreExport renders the export, persists it and returns a signed download
// link.
func (s *ReviewExportService) StoreExport(ctx context.Context, filter models.ReviewTaskFilter, format ReviewExportFormat) (*ReviewExportLink, error) {
	if s.store == nil || s.signer == nil {
		return nil, fmt.Errorf("stored exports are not configured")
	}

	out, err := s.Generate(ctx, filter, format)
	if err != nil {
		return nil, err
	}
	path, err := s.store.Save(out.Filename, out.Payload)
	if err != nil {
		return nil, fmt.Errorf("store review export: %w", err)
	}
	token, expiresAt, err := s.signer.Generate(path)
	if err != nil {
		return nil, fmt.Errorf("sign review export link: %w", err)
	}
	s.logger.Info("review export stored",
		zap.String("path", path), zap.Time("expires_at", expiresAt))
	return &ReviewExportLink{Path: path, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenExport redeems a download token and returns the stored file.
func (s *ReviewExportService) OpenExport(token string) (*os.File, error) {
	if s.store == nil || s.signer == nil {
		return nil, fmt.Errorf("stored exports are not configured")
	}
	path, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, err
	}
	return s.store.Open(path)
}

func reviewTaskDataset(tasks []models.ReviewTask) export.Dataset {
	rows := make([]map[string]string, 0, len(tasks))
	for _, task := range tasks {
		completed := "no"
		if task.Completed {
			completed = "yes"
		}
		rows = append(rows, map[string]string{
			"Task ID":     task.ID.String(),
			"Teacher ID":  task.TeacherID.String(),
			"Category":    string(task.Category),
			"Title":       task.Title,
			"Description": task.Description,
			"Completed":   completed,
			"Raised At":   task.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"Task ID", "Teacher ID", "Category", "Title", "Description", "Completed", "Raised At"},
		Rows:    rows,
	}
}
