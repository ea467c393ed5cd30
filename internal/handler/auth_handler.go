package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/service"
	appErrors "github.com/teachreg/trs-api/pkg/errors"
	"github.com/teachreg/trs-api/pkg/response"
)

// AuthHandler exposes the client-credentials token endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Issue an access token for client credentials
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Client credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
