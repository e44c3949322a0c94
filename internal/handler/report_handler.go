package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/service"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
	"github.com/noah-isme/siteops-api/pkg/export"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// ReportHandler exposes daily report submission, approval and lookup.
type ReportHandler struct {
	reports  *service.ReportService
	projects *service.ProjectService
	exporter *export.PDFExporter
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports *service.ReportService, projects *service.ProjectService, exporter *export.PDFExporter) *ReportHandler {
	return &ReportHandler{reports: reports, projects: projects, exporter: exporter}
}

// Submit godoc
// @Summary Submit daily report
// @Description Submit a dated report of work-done claims for a project
// @Tags Reports
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param payload body service.SubmitReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.EngineerID == "" {
		req.EngineerID = claims.UserID
	}

	report, err := h.reports.Submit(c.Request.Context(), c.Param("projectId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, report)
}

// Approve godoc
// @Summary Approve daily report
// @Description Approve a pending report with a work grade
// @Tags Reports
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param reportId path string true "Report ID"
// @Param payload body service.ApproveReportRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/reports/{reportId}/approve [post]
func (h *ReportHandler) Approve(c *gin.Context) {
	var req service.ApproveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	projectID := c.Param("projectId")
	reportID := c.Param("reportId")
	if err := h.reports.Approve(c.Request.Context(), projectID, reportID, req.Grade); err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.Get(c.Request.Context(), projectID, reportID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List daily reports
// @Description List reports of a project with filtering and pagination
// @Tags Reports
// @Produce json
// @Param projectId path string true "Project ID"
// @Param status query string false "Status filter (Pending, Approved)"
// @Param diary_date query string false "Diary date (YYYYMMDD)"
// @Param zone_id query string false "Zone filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects/{projectId}/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	filter := models.ReportFilter{
		ProjectID: c.Param("projectId"),
		DiaryDate: c.Query("diary_date"),
		ZoneID:    c.Query("zone_id"),
	}
	if status := c.Query("status"); status != "" {
		st := models.ReportStatus(status)
		filter.Status = &st
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	reports, pagination, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get daily report
// @Description Get one report with its items
// @Tags Reports
// @Produce json
// @Param projectId path string true "Project ID"
// @Param reportId path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/reports/{reportId} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("projectId"), c.Param("reportId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// ExportPDF godoc
// @Summary Export daily report as PDF
// @Description Render the printable site document for one report
// @Tags Reports
// @Produce application/pdf
// @Param projectId path string true "Project ID"
// @Param reportId path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/reports/{reportId}/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	projectID := c.Param("projectId")
	report, err := h.reports.Get(c.Request.Context(), projectID, c.Param("reportId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	projectName := projectID
	if h.projects != nil {
		if project, err := h.projects.Get(c.Request.Context(), projectID); err == nil {
			projectName = project.Name
		}
	}

	payload, err := h.exporter.RenderDailyReport(report, projectName)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report pdf"))
		return
	}

	filename := fmt.Sprintf("daily-report-%s.pdf", report.DiaryDate)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}
