package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/repository"
	"github.com/teachreg/trs-api/internal/service"
	appErrors "github.com/teachreg/trs-api/pkg/errors"
	"github.com/teachreg/trs-api/pkg/response"
)

// ReviewTaskHandler serves the support team's review queue.
type ReviewTaskHandler struct {
	tasks   *repository.ReviewTaskRepository
	exports *service.ReviewExportService
}

// NewReviewTaskHandler constructs a ReviewTaskHandler.
func NewReviewTaskHandler(tasks *repository.ReviewTaskRepository, exports *service.ReviewExportService) *ReviewTaskHandler {
	return &ReviewTaskHandler{tasks: tasks, exports: exports}
}

// List godoc
// @Summary List review tasks
// @Tags Review
// @Produce json
// @Param category query string false "Filter by category"
// @Param completed query bool false "Filter by completion"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /review-tasks [get]
func (h *ReviewTaskHandler) List(c *gin.Context) {
	filter := parseReviewFilter(c)

	tasks, total, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}
	response.JSON(c, http.StatusOK, tasks, pagination)
}

// Complete godoc
// @Summary Mark a review task complete
// @Tags Review
// @Param id path string true "Task ID"
// @Success 204
// @Router /review-tasks/{id}/complete [post]
func (h *ReviewTaskHandler) Complete(c *gin.Context) {
	if err := h.tasks.Complete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export review tasks
// @Tags Review
// @Produce text/csv,application/pdf,json
// @Param format query string false "Export format (csv or pdf)"
// @Param delivery query string false "stream (default) or link"
// @Param category query string false "Filter by category"
// @Param completed query bool false "Filter by completion"
// @Success 200 {file} file
// @Router /review-tasks/export [get]
func (h *ReviewTaskHandler) Export(c *gin.Context) {
	format := service.ReviewExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	if format != service.ReviewExportCSV && format != service.ReviewExportPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	if strings.EqualFold(c.Query("delivery"), "link") {
		link, err := h.exports.StoreExport(c.Request.Context(), parseReviewFilter(c), format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, link, nil)
		return
	}

	export, err := h.exports.Generate(c.Request.Context(), parseReviewFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, export.ContentType, export.Payload)
}

// Download godoc
// @Summary Download a stored review export
// @Tags Review
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /review-tasks/export/download [get]
func (h *ReviewTaskHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.exports.OpenExport(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	defer file.Close() //nolint:errcheck
	c.FileAttachment(file.Name(), filepath.Base(file.Name()))
}

func parseReviewFilter(c *gin.Context) models.ReviewTaskFilter {
	filter := models.ReviewTaskFilter{
		Category: strings.TrimSpace(c.Query("category")),
	}
	if completed := c.Query("completed"); completed != "" {
		switch strings.ToLower(completed) {
		case "true":
			val := true
			filter.Completed = &val
		case "false":
			val := false
			filter.Completed = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	return filter
}
