package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/middleware"
	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/repository"
	"github.com/noah-isme/siteops-api/internal/service"
	"github.com/noah-isme/siteops-api/pkg/export"
)

// handlerLedger is the minimal in-memory ledger the handler tests need:
// one project, one pre-seeded ledger entry, reports held in a map.
type handlerLedger struct {
	reports   map[string]*models.DailyReport
	items     map[string][]models.ReportItem
	summaries map[string]*models.SubActivitySummary
}

func newHandlerLedger() *handlerLedger {
	return &handlerLedger{
		reports:   map[string]*models.DailyReport{},
		items:     map[string][]models.ReportItem{},
		summaries: map[string]*models.SubActivitySummary{"sub-1": {SubActivityID: "sub-1", ProjectID: "proj-1", TotalWork: 100}},
	}
}

func (h *handlerLedger) Transact(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	return fn(h)
}

func (h *handlerLedger) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return projectID == "proj-1", nil
}

func (h *handlerLedger) InsertReport(ctx context.Context, report *models.DailyReport) error {
	cp := *report
	h.reports[report.ID] = &cp
	return nil
}

func (h *handlerLedger) InsertItem(ctx context.Context, item *models.ReportItem) error {
	h.items[item.ReportID] = append(h.items[item.ReportID], *item)
	return nil
}

func (h *handlerLedger) ReportForUpdate(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	report, ok := h.reports[reportID]
	if !ok || report.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	cp := *report
	return &cp, nil
}

func (h *handlerLedger) ItemsByReport(ctx context.Context, reportID string) ([]models.ReportItem, error) {
	return h.items[reportID], nil
}

func (h *handlerLedger) SummariesForUpdate(ctx context.Context, ids []string) (map[string]models.SubActivitySummary, error) {
	out := map[string]models.SubActivitySummary{}
	for _, id := range ids {
		if s, ok := h.summaries[id]; ok {
			out[id] = *s
		}
	}
	return out, nil
}

func (h *handlerLedger) AddPending(ctx context.Context, id string, qty float64) (bool, error) {
	s, ok := h.summaries[id]
	if !ok {
		return false, nil
	}
	s.PendingWork += qty
	return true, nil
}

func (h *handlerLedger) AddZonePending(ctx context.Context, id, zone string, qty float64) (bool, error) {
	return false, nil
}

func (h *handlerLedger) MovePendingToDone(ctx context.Context, id string, qty float64, grade models.WorkGrade) (bool, error) {
	s, ok := h.summaries[id]
	if !ok {
		return false, nil
	}
	s.PendingWork -= qty
	s.DoneWork += qty
	return true, nil
}

func (h *handlerLedger) MoveZonePendingToDone(ctx context.Context, id, zone string, qty float64) (bool, error) {
	return false, nil
}

func (h *handlerLedger) MarkApproved(ctx context.Context, reportID string, grade models.WorkGrade, at time.Time) error {
	report := h.reports[reportID]
	report.Status = models.ReportApproved
	g := grade
	report.Grade = &g
	report.ApprovedAt = &at
	return nil
}

func (h *handlerLedger) ApplyProjectProgress(ctx context.Context, projectID string, delta float64, at time.Time) error {
	return nil
}

func (h *handlerLedger) RecordAnomaly(ctx context.Context, anomaly *models.LedgerAnomaly) error {
	return nil
}

func (h *handlerLedger) List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, *models.Pagination, error) {
	var out []models.DailyReport
	for _, r := range h.reports {
		if r.ProjectID == filter.ProjectID {
			out = append(out, *r)
		}
	}
	return out, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(out)}, nil
}

func (h *handlerLedger) GetWithItems(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	report, ok := h.reports[reportID]
	if !ok || report.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	cp := *report
	cp.Items = h.items[reportID]
	return &cp, nil
}

func setupReportRouter(t *testing.T) (*gin.Engine, *handlerLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := newHandlerLedger()
	svc := service.NewReportService(ledger, ledger, nil, nil, nil, nil)
	h := NewReportHandler(svc, nil, export.NewPDFExporter())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "eng-77", Role: models.RoleEngineer})
	})
	router.POST("/projects/:projectId/reports", h.Submit)
	router.GET("/projects/:projectId/reports", h.List)
	router.GET("/projects/:projectId/reports/:reportId", h.Get)
	router.POST("/projects/:projectId/reports/:reportId/approve", h.Approve)
	router.GET("/projects/:projectId/reports/:reportId/pdf", h.ExportPDF)
	return router, ledger
}

type envelopeOf[T any] struct {
	Data  T               `json:"data"`
	Error json.RawMessage `json:"error"`
}

func submitReport(t *testing.T, router *gin.Engine, body string) models.DailyReport {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/reports", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelopeOf[models.DailyReport]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

const submitBody = `{"cm_id":"cm-1","report_date":"2026-03-14T09:00:00Z","items":[{"sub_activity_id":"sub-1","quantity":12.5}]}`

func TestReportSubmitEndpoint(t *testing.T) {
	router, ledger := setupReportRouter(t)

	report := submitReport(t, router, submitBody)
	assert.Equal(t, "proj-1", report.ProjectID)
	// Engineer comes from the token when the payload omits it.
	assert.Equal(t, "eng-77", report.EngineerID)
	assert.Equal(t, "20260314", report.DiaryDate)
	assert.Equal(t, 12.5, ledger.summaries["sub-1"].PendingWork)
}

func TestReportSubmitEndpointRejectsEmptyItems(t *testing.T) {
	router, _ := setupReportRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/reports", bytes.NewBufferString(`{"cm_id":"cm-1","report_date":"2026-03-14T09:00:00Z","items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportApproveEndpoint(t *testing.T) {
	router, ledger := setupReportRouter(t)
	report := submitReport(t, router, submitBody)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/reports/"+report.ID+"/approve", bytes.NewBufferString(`{"grade":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelopeOf[models.DailyReport]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, models.ReportApproved, env.Data.Status)
	require.NotNil(t, env.Data.Grade)
	assert.Equal(t, models.GradeA, *env.Data.Grade)
	assert.Equal(t, 12.5, ledger.summaries["sub-1"].DoneWork)
}

func TestReportApproveEndpointNotFound(t *testing.T) {
	router, _ := setupReportRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects/proj-1/reports/missing/approve", bytes.NewBufferString(`{"grade":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportListEndpoint(t *testing.T) {
	router, _ := setupReportRouter(t)
	submitReport(t, router, submitBody)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/proj-1/reports", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelopeOf[[]models.DailyReport]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Data, 1)
}

func TestReportPDFEndpoint(t *testing.T) {
	router, _ := setupReportRouter(t)
	report := submitReport(t, router, submitBody)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/proj-1/reports/"+report.ID+"/pdf", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "daily-report-20260314.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
