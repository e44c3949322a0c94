package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/service"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// DashboardHandler serves aggregated project views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// ProjectDashboard godoc
// @Summary Project dashboard
// @Description Aggregated progress view built from ledger counters
// @Tags Dashboard
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/dashboard [get]
func (h *DashboardHandler) ProjectDashboard(c *gin.Context) {
	dashboard, err := h.service.ProjectDashboard(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Anomalies godoc
// @Summary Ledger anomalies
// @Description Recent missing-ledger-entry incidents for a project
// @Tags Dashboard
// @Produce json
// @Param projectId path string true "Project ID"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /projects/{projectId}/anomalies [get]
func (h *DashboardHandler) Anomalies(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	anomalies, err := h.service.Anomalies(c.Request.Context(), c.Param("projectId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, anomalies, nil)
}
