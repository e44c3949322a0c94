package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/repository"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

// fakeLedger is an in-memory ledgerStore. Each Transact call mutates the
// shared state directly; a returned error leaves previously applied
// mutations in place, which is fine for these tests because the service
// is expected to fail before mutating in every error case exercised.
type fakeLedger struct {
	projects    map[string]bool
	reports     map[string]*models.DailyReport
	items       map[string][]models.ReportItem
	summaries   map[string]*models.SubActivitySummary
	zones       map[string]*models.ZoneProgress
	project     *models.ProjectSummary
	anomalies   []*models.LedgerAnomaly
	transactErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		projects:  map[string]bool{},
		reports:   map[string]*models.DailyReport{},
		items:     map[string][]models.ReportItem{},
		summaries: map[string]*models.SubActivitySummary{},
		zones:     map[string]*models.ZoneProgress{},
	}
}

func (f *fakeLedger) Transact(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	if f.transactErr != nil {
		return f.transactErr
	}
	return fn(f)
}

func (f *fakeLedger) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return f.projects[projectID], nil
}

func (f *fakeLedger) InsertReport(ctx context.Context, report *models.DailyReport) error {
	cp := *report
	f.reports[report.ID] = &cp
	return nil
}

func (f *fakeLedger) InsertItem(ctx context.Context, item *models.ReportItem) error {
	f.items[item.ReportID] = append(f.items[item.ReportID], *item)
	return nil
}

func (f *fakeLedger) ReportForUpdate(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	report, ok := f.reports[reportID]
	if !ok || report.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	cp := *report
	return &cp, nil
}

func (f *fakeLedger) ItemsByReport(ctx context.Context, reportID string) ([]models.ReportItem, error) {
	return f.items[reportID], nil
}

func (f *fakeLedger) SummariesForUpdate(ctx context.Context, subActivityIDs []string) (map[string]models.SubActivitySummary, error) {
	result := make(map[string]models.SubActivitySummary, len(subActivityIDs))
	for _, id := range subActivityIDs {
		if s, ok := f.summaries[id]; ok {
			result[id] = *s
		}
	}
	return result, nil
}

func (f *fakeLedger) AddPending(ctx context.Context, subActivityID string, qty float64) (bool, error) {
	s, ok := f.summaries[subActivityID]
	if !ok {
		return false, nil
	}
	s.PendingWork += qty
	return true, nil
}

func (f *fakeLedger) AddZonePending(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error) {
	z, ok := f.zones[subActivityID+"/"+zoneName]
	if !ok {
		return false, nil
	}
	z.PendingWork += qty
	return true, nil
}

func (f *fakeLedger) MovePendingToDone(ctx context.Context, subActivityID string, qty float64, grade models.WorkGrade) (bool, error) {
	s, ok := f.summaries[subActivityID]
	if !ok {
		return false, nil
	}
	s.PendingWork -= qty
	s.DoneWork += qty
	switch grade {
	case models.GradeA:
		s.WorkGradeA += qty
	case models.GradeB:
		s.WorkGradeB += qty
	case models.GradeC:
		s.WorkGradeC += qty
	}
	return true, nil
}

func (f *fakeLedger) MoveZonePendingToDone(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error) {
	z, ok := f.zones[subActivityID+"/"+zoneName]
	if !ok {
		return false, nil
	}
	z.PendingWork -= qty
	z.DoneWork += qty
	return true, nil
}

func (f *fakeLedger) MarkApproved(ctx context.Context, reportID string, grade models.WorkGrade, at time.Time) error {
	report, ok := f.reports[reportID]
	if !ok {
		return sql.ErrNoRows
	}
	report.Status = models.ReportApproved
	g := grade
	report.Grade = &g
	t := at
	report.ApprovedAt = &t
	return nil
}

func (f *fakeLedger) ApplyProjectProgress(ctx context.Context, projectID string, delta float64, at time.Time) error {
	if f.project == nil {
		return nil
	}
	f.project.TotalProgressSum += delta
	if f.project.SubActivityCount > 0 {
		f.project.OverallProgress = f.project.TotalProgressSum / float64(f.project.SubActivityCount)
	}
	t := at
	f.project.LastReportAt = &t
	return nil
}

func (f *fakeLedger) RecordAnomaly(ctx context.Context, anomaly *models.LedgerAnomaly) error {
	f.anomalies = append(f.anomalies, anomaly)
	return nil
}

func (f *fakeLedger) seedSummary(subActivityID, projectID string, total float64) *models.SubActivitySummary {
	s := &models.SubActivitySummary{
		SubActivityID: subActivityID,
		ProjectID:     projectID,
		TotalWork:     total,
	}
	f.summaries[subActivityID] = s
	return s
}

func (f *fakeLedger) seedZone(subActivityID, zoneName string, planned float64) *models.ZoneProgress {
	z := &models.ZoneProgress{SubActivityID: subActivityID, ZoneName: zoneName, PlannedWork: planned}
	f.zones[subActivityID+"/"+zoneName] = z
	return z
}

func strPtr(s string) *string { return &s }

func validSubmitRequest(items ...SubmitReportItem) SubmitReportRequest {
	return SubmitReportRequest{
		EngineerID: "eng-1",
		CMID:       "cm-1",
		ReportDate: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Items:      items,
	}
}

func TestReportServiceSubmit(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 100)
	ledger.seedZone("sub-1", "North", 40)

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	report, err := svc.Submit(context.Background(), "proj-1", validSubmitRequest(
		SubmitReportItem{SubActivityID: "sub-1", ZoneName: strPtr("North"), Quantity: 12.5},
	))
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, models.ReportPending, report.Status)
	assert.Equal(t, "20260314", report.DiaryDate)
	assert.Len(t, report.Items, 1)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, report.ID, report.Items[0].ReportID)

	assert.Equal(t, 12.5, ledger.summaries["sub-1"].PendingWork)
	assert.Equal(t, 0.0, ledger.summaries["sub-1"].DoneWork)
	assert.Equal(t, 12.5, ledger.zones["sub-1/North"].PendingWork)
	assert.Empty(t, ledger.anomalies)
}

func TestReportServiceSubmitProjectNotFound(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewReportService(ledger, nil, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "missing", validSubmitRequest(
		SubmitReportItem{SubActivityID: "sub-1", Quantity: 1},
	))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, ledger.reports)
}

func TestReportServiceSubmitValidation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	svc := NewReportService(ledger, nil, nil, nil, nil, nil)

	cases := []struct {
		name string
		req  SubmitReportRequest
	}{
		{"no items", SubmitReportRequest{EngineerID: "e", CMID: "c", ReportDate: time.Now()}},
		{"zero quantity", validSubmitRequest(SubmitReportItem{SubActivityID: "sub-1", Quantity: 0})},
		{"negative quantity", validSubmitRequest(SubmitReportItem{SubActivityID: "sub-1", Quantity: -3})},
		{"missing engineer", SubmitReportRequest{CMID: "c", ReportDate: time.Now(), Items: []SubmitReportItem{{SubActivityID: "s", Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), "proj-1", tc.req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
	assert.Empty(t, ledger.reports)
}

func TestReportServiceSubmitMissingLedgerEntry(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-ok", "proj-1", 50)

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)

	report, err := svc.Submit(context.Background(), "proj-1", validSubmitRequest(
		SubmitReportItem{SubActivityID: "sub-ok", Quantity: 5},
		SubmitReportItem{SubActivityID: "sub-gone", Quantity: 7},
	))
	require.NoError(t, err)

	// The report and both items persist; only the missing entry's
	// counters are skipped and the gap is recorded.
	assert.Len(t, ledger.items[report.ID], 2)
	assert.Equal(t, 5.0, ledger.summaries["sub-ok"].PendingWork)
	require.Len(t, ledger.anomalies, 1)
	assert.Equal(t, "sub-gone", ledger.anomalies[0].SubActivityID)
	assert.Equal(t, models.AnomalyStageSubmit, ledger.anomalies[0].Stage)
}

func TestReportServiceSubmitMissingZoneBucket(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 100)

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "proj-1", validSubmitRequest(
		SubmitReportItem{SubActivityID: "sub-1", ZoneName: strPtr("Ghost"), Quantity: 4},
	))
	require.NoError(t, err)

	// Sub-activity counters still move; no zone bucket appears.
	assert.Equal(t, 4.0, ledger.summaries["sub-1"].PendingWork)
	assert.Empty(t, ledger.zones)
	assert.Empty(t, ledger.anomalies)
}

func submitAndReturn(t *testing.T, svc *ReportService, projectID string, items ...SubmitReportItem) *models.DailyReport {
	t.Helper()
	report, err := svc.Submit(context.Background(), projectID, validSubmitRequest(items...))
	require.NoError(t, err)
	return report
}

func TestReportServiceApprove(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 100)
	ledger.seedZone("sub-1", "North", 40)
	ledger.project = &models.ProjectSummary{ProjectID: "proj-1", SubActivityCount: 1}

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	report := submitAndReturn(t, svc, "proj-1",
		SubmitReportItem{SubActivityID: "sub-1", ZoneName: strPtr("North"), Quantity: 25},
	)

	err := svc.Approve(context.Background(), "proj-1", report.ID, models.GradeB)
	require.NoError(t, err)

	s := ledger.summaries["sub-1"]
	assert.Equal(t, 25.0, s.DoneWork)
	assert.Equal(t, 0.0, s.PendingWork)
	assert.Equal(t, 25.0, s.WorkGradeB)
	assert.Equal(t, 0.0, s.WorkGradeA)
	assert.Equal(t, s.DoneWork, s.WorkGradeA+s.WorkGradeB+s.WorkGradeC)

	z := ledger.zones["sub-1/North"]
	assert.Equal(t, 25.0, z.DoneWork)
	assert.Equal(t, 0.0, z.PendingWork)

	stored := ledger.reports[report.ID]
	assert.Equal(t, models.ReportApproved, stored.Status)
	require.NotNil(t, stored.Grade)
	assert.Equal(t, models.GradeB, *stored.Grade)
	require.NotNil(t, stored.ApprovedAt)

	// 25 of 100 planned is +25 percentage points over one sub-activity.
	assert.InDelta(t, 25.0, ledger.project.TotalProgressSum, 1e-9)
	assert.InDelta(t, 25.0, ledger.project.OverallProgress, 1e-9)
	require.NotNil(t, ledger.project.LastReportAt)
}

func TestReportServiceApproveIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 100)
	ledger.project = &models.ProjectSummary{ProjectID: "proj-1", SubActivityCount: 1}

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	report := submitAndReturn(t, svc, "proj-1",
		SubmitReportItem{SubActivityID: "sub-1", Quantity: 10},
	)

	require.NoError(t, svc.Approve(context.Background(), "proj-1", report.ID, models.GradeA))
	require.NoError(t, svc.Approve(context.Background(), "proj-1", report.ID, models.GradeC))

	s := ledger.summaries["sub-1"]
	assert.Equal(t, 10.0, s.DoneWork)
	assert.Equal(t, 10.0, s.WorkGradeA)
	assert.Equal(t, 0.0, s.WorkGradeC)
	assert.InDelta(t, 10.0, ledger.project.TotalProgressSum, 1e-9)

	// The original grade survives the repeated call.
	require.NotNil(t, ledger.reports[report.ID].Grade)
	assert.Equal(t, models.GradeA, *ledger.reports[report.ID].Grade)
}

func TestReportServiceApproveTwoItemsSameSubActivity(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 100)
	ledger.project = &models.ProjectSummary{ProjectID: "proj-1", SubActivityCount: 1}

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	report := submitAndReturn(t, svc, "proj-1",
		SubmitReportItem{SubActivityID: "sub-1", Quantity: 10},
		SubmitReportItem{SubActivityID: "sub-1", Quantity: 15},
	)

	require.NoError(t, svc.Approve(context.Background(), "proj-1", report.ID, models.GradeA))

	s := ledger.summaries["sub-1"]
	assert.Equal(t, 25.0, s.DoneWork)
	assert.Equal(t, 0.0, s.PendingWork)

	// Both deltas are computed against the pre-approval snapshot: each
	// item contributes its own quantity as a percent of total work.
	assert.InDelta(t, 25.0, ledger.project.TotalProgressSum, 1e-9)
}

func TestReportServiceApproveInvalidGrade(t *testing.T) {
	svc := NewReportService(newFakeLedger(), nil, nil, nil, nil, nil)
	err := svc.Approve(context.Background(), "proj-1", "rep-1", models.WorkGrade("D"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceApproveNotFound(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewReportService(ledger, nil, nil, nil, nil, nil)

	err := svc.Approve(context.Background(), "proj-1", "missing", models.GradeA)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceApproveMissingLedgerEntry(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-ok", "proj-1", 50)
	ledger.project = &models.ProjectSummary{ProjectID: "proj-1", SubActivityCount: 2}

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	report := submitAndReturn(t, svc, "proj-1",
		SubmitReportItem{SubActivityID: "sub-ok", Quantity: 10},
		SubmitReportItem{SubActivityID: "sub-gone", Quantity: 20},
	)
	ledger.anomalies = nil

	require.NoError(t, svc.Approve(context.Background(), "proj-1", report.ID, models.GradeA))

	assert.Equal(t, 10.0, ledger.summaries["sub-ok"].DoneWork)
	require.Len(t, ledger.anomalies, 1)
	assert.Equal(t, "sub-gone", ledger.anomalies[0].SubActivityID)
	assert.Equal(t, models.AnomalyStageApprove, ledger.anomalies[0].Stage)

	// Only the tracked entry contributes to project progress.
	assert.InDelta(t, 20.0, ledger.project.TotalProgressSum, 1e-9)
}

func TestReportServiceOverReportingAllowed(t *testing.T) {
	ledger := newFakeLedger()
	ledger.projects["proj-1"] = true
	ledger.seedSummary("sub-1", "proj-1", 10)
	ledger.project = &models.ProjectSummary{ProjectID: "proj-1", SubActivityCount: 1}

	svc := NewReportService(ledger, nil, nil, nil, nil, nil)
	report := submitAndReturn(t, svc, "proj-1",
		SubmitReportItem{SubActivityID: "sub-1", Quantity: 30},
	)
	require.NoError(t, svc.Approve(context.Background(), "proj-1", report.ID, models.GradeA))

	assert.Equal(t, 30.0, ledger.summaries["sub-1"].DoneWork)
	assert.InDelta(t, 300.0, ledger.project.OverallProgress, 1e-9)
}

type stubReportReader struct {
	reports    []models.DailyReport
	pagination *models.Pagination
	report     *models.DailyReport
	listErr    error
	getErr     error
}

func (s *stubReportReader) List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, *models.Pagination, error) {
	return s.reports, s.pagination, s.listErr
}

func (s *stubReportReader) GetWithItems(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.report, nil
}

func TestReportServiceList(t *testing.T) {
	reader := &stubReportReader{
		reports:    []models.DailyReport{{ID: "r1"}, {ID: "r2"}},
		pagination: &models.Pagination{Page: 1, PageSize: 20, TotalCount: 2},
	}
	svc := NewReportService(newFakeLedger(), reader, nil, nil, nil, nil)

	reports, pagination, err := svc.List(context.Background(), models.ReportFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), models.ReportFilter{})
	require.Error(t, err)
}

func TestReportServiceGetNotFound(t *testing.T) {
	reader := &stubReportReader{getErr: sql.ErrNoRows}
	svc := NewReportService(newFakeLedger(), reader, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "proj-1", "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
