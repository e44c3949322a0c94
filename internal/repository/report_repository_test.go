package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
)

func reportRows(now time.Time, ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "project_id", "engineer_id", "cm_id", "zone_id", "report_date", "diary_date", "status", "grade", "remarks", "approved_at", "created_at"})
	for _, id := range ids {
		rows.AddRow(id, "proj-1", "eng-1", "cm-1", nil, now, "20260314", string(models.ReportPending), nil, nil, nil, now)
	}
	return rows
}

func TestListReportsWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportApproved
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM daily_reports WHERE project_id = $1 AND status = $2 AND diary_date = $3")).
		WithArgs("proj-1", status, "20260314").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY report_date DESC, created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("proj-1", status, "20260314", 10, 10).
		WillReturnRows(reportRows(now, "rep-1"))

	reports, pagination, err := repo.List(context.Background(), models.ReportFilter{
		ProjectID: "proj-1",
		Status:    &status,
		DiaryDate: "20260314",
		Page:      2,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsDefaultsPagination(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM daily_reports WHERE project_id = $1")).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("proj-1", 20, 0).
		WillReturnRows(reportRows(time.Now()))

	_, pagination, err := repo.List(context.Background(), models.ReportFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWithItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_reports WHERE id = $1 AND project_id = $2")).
		WithArgs("rep-1", "proj-1").
		WillReturnRows(reportRows(now, "rep-1"))
	itemRows := sqlmock.NewRows([]string{"id", "report_id", "sub_activity_id", "zone_id", "zone_name", "quantity", "general_foreman", "foreman", "road", "subcontractor", "remarks", "created_at"}).
		AddRow("item-1", "rep-1", "sub-1", nil, "North", 12.5, nil, nil, nil, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_items WHERE report_id = $1")).
		WithArgs("rep-1").
		WillReturnRows(itemRows)

	report, err := repo.GetWithItems(context.Background(), "proj-1", "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "rep-1", report.ID)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 12.5, report.Items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWithItemsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_reports WHERE id = $1 AND project_id = $2")).
		WithArgs("missing", "proj-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetWithItems(context.Background(), "proj-1", "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllReportsAndItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_reports ORDER BY created_at, id")).
		WillReturnRows(reportRows(now, "rep-1", "rep-2"))
	itemRows := sqlmock.NewRows([]string{"id", "report_id", "sub_activity_id", "zone_id", "zone_name", "quantity", "general_foreman", "foreman", "road", "subcontractor", "remarks", "created_at"}).
		AddRow("item-1", "rep-1", "sub-1", nil, nil, 5.0, nil, nil, nil, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_items ORDER BY created_at, id")).
		WillReturnRows(itemRows)

	reports, err := repo.AllReports(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	items, err := repo.AllItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
