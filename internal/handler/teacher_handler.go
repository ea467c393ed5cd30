package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachreg/trs-api/internal/service"
	appErrors "github.com/teachreg/trs-api/pkg/errors"
	"github.com/teachreg/trs-api/pkg/response"
)

// TeacherHandler wires teacher commands to HTTP routes.
type TeacherHandler struct {
	creates *service.CreateTeacherService
	results *service.IttResultService
	metrics *service.MetricsService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(creates *service.CreateTeacherService, results *service.IttResultService, metrics *service.MetricsService) *TeacherHandler {
	return &TeacherHandler{creates: creates, results: results, metrics: metrics}
}

// Create godoc
// @Summary Create a teacher record
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherCommand true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var cmd service.CreateTeacherCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	result, err := h.creates.Create(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Succeeded {
		h.metrics.RecordTeacherCreate("failed", 0)
		// Unresolved reference data is a payload problem, not a server one.
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	outcome := "created"
	if result.PendingReview {
		outcome = "pending_review"
	}
	h.metrics.RecordTeacherCreate(outcome, result.CandidateCount)
	response.Created(c, result)
}

// SetIttOutcome godoc
// @Summary Set the ITT outcome for a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param trn path string true "Teacher reference number"
// @Param payload body service.SetIttResultCommand true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{trn}/itt-outcome [put]
func (h *TeacherHandler) SetIttOutcome(c *gin.Context) {
	var cmd service.SetIttResultCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid itt outcome payload"))
		return
	}
	cmd.TRN = c.Param("trn")

	outcome, err := h.results.SetResult(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !outcome.Succeeded {
		response.JSON(c, http.StatusUnprocessableEntity, outcome, nil)
		return
	}
	h.metrics.RecordIttTransition(string(cmd.Result))
	response.JSON(c, http.StatusOK, outcome, nil)
}
