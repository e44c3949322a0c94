package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/service"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// SafetyHandler proxies site photos to the safety classifier.
type SafetyHandler struct {
	service *service.SafetyService
}

// NewSafetyHandler creates a new safety handler.
func NewSafetyHandler(svc *service.SafetyService) *SafetyHandler {
	return &SafetyHandler{service: svc}
}

// Classify godoc
// @Summary Classify site photo
// @Description Submit a photo URL to the safety violation classifier
// @Tags Safety
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param payload body service.SafetyCheckRequest true "Photo payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /projects/{projectId}/safety-checks [post]
func (h *SafetyHandler) Classify(c *gin.Context) {
	var req service.SafetyCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid safety check payload"))
		return
	}
	req.ProjectID = c.Param("projectId")

	result, err := h.service.Classify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
