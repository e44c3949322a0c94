package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/service"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// ReconcileHandler triggers the summary reconciliation job on demand.
type ReconcileHandler struct {
	service *service.ReconcileService
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{service: svc}
}

// Run godoc
// @Summary Run summary reconciliation
// @Description Replay report history, repair drifted ledger entries and report counts
// @Tags Reconciliation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reconcile [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
