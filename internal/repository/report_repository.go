package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// ReportRepository handles the read side of daily reports. All report
// writes go through LedgerRepository transactions so the ledger moves
// together with them.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = "id, project_id, engineer_id, cm_id, zone_id, report_date, diary_date, status, grade, remarks, approved_at, created_at"

const itemColumns = "id, report_id, sub_activity_id, zone_id, zone_name, quantity, general_foreman, foreman, road, subcontractor, remarks, created_at"

// List returns daily reports matching the filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, *models.Pagination, error) {
	where := " WHERE project_id = $1"
	args := []interface{}{filter.ProjectID}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	if filter.DiaryDate != "" {
		where += fmt.Sprintf(" AND diary_date = $%d", len(args)+1)
		args = append(args, filter.DiaryDate)
	}
	if filter.ZoneID != "" {
		where += fmt.Sprintf(" AND zone_id = $%d", len(args)+1)
		args = append(args, filter.ZoneID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM daily_reports"+where, args...); err != nil {
		return nil, nil, fmt.Errorf("count reports: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf("SELECT %s FROM daily_reports%s ORDER BY report_date DESC, created_at DESC LIMIT $%d OFFSET $%d",
		reportColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var reports []models.DailyReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetWithItems returns one report with its line items.
func (r *ReportRepository) GetWithItems(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	var report models.DailyReport
	query := fmt.Sprintf("SELECT %s FROM daily_reports WHERE id = $1 AND project_id = $2", reportColumns)
	if err := r.db.GetContext(ctx, &report, query, reportID, projectID); err != nil {
		return nil, err
	}
	itemQuery := fmt.Sprintf("SELECT %s FROM report_items WHERE report_id = $1 ORDER BY created_at, id", itemColumns)
	if err := r.db.SelectContext(ctx, &report.Items, itemQuery, reportID); err != nil {
		return nil, fmt.Errorf("load items for report %s: %w", reportID, err)
	}
	return &report, nil
}

// AllReports returns every report header across all projects, oldest
// first. The reconciliation replay needs the full history; no
// pagination on purpose.
func (r *ReportRepository) AllReports(ctx context.Context) ([]models.DailyReport, error) {
	var reports []models.DailyReport
	query := fmt.Sprintf("SELECT %s FROM daily_reports ORDER BY created_at, id", reportColumns)
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("scan all reports: %w", err)
	}
	return reports, nil
}

// AllItems returns every report item across all projects, for the
// reconciliation replay.
func (r *ReportRepository) AllItems(ctx context.Context) ([]models.ReportItem, error) {
	var items []models.ReportItem
	query := fmt.Sprintf("SELECT %s FROM report_items ORDER BY created_at, id", itemColumns)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("scan all report items: %w", err)
	}
	return items, nil
}
