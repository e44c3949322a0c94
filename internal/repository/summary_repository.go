package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// SummaryRepository reads ledger entries for dashboards and applies the
// reconciliation job's batch repairs. It never performs incremental
// updates; those belong to LedgerRepository transactions.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

const summaryColumns = "sub_activity_id, project_id, total_work, done_work, pending_work, work_grade_a, work_grade_b, work_grade_c, updated_at"

// GetBySubActivity returns one ledger entry with its zone buckets.
func (r *SummaryRepository) GetBySubActivity(ctx context.Context, subActivityID string) (*models.SubActivitySummary, error) {
	var summary models.SubActivitySummary
	query := fmt.Sprintf("SELECT %s FROM sub_activity_summaries WHERE sub_activity_id = $1", summaryColumns)
	if err := r.db.GetContext(ctx, &summary, query, subActivityID); err != nil {
		return nil, err
	}
	if err := r.attachZones(ctx, []*models.SubActivitySummary{&summary}); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListByProject returns all ledger entries of a project with zones.
func (r *SummaryRepository) ListByProject(ctx context.Context, projectID string) ([]models.SubActivitySummary, error) {
	var summaries []models.SubActivitySummary
	query := fmt.Sprintf("SELECT %s FROM sub_activity_summaries WHERE project_id = $1 ORDER BY sub_activity_id", summaryColumns)
	if err := r.db.SelectContext(ctx, &summaries, query, projectID); err != nil {
		return nil, fmt.Errorf("list summaries for project %s: %w", projectID, err)
	}
	refs := make([]*models.SubActivitySummary, len(summaries))
	for i := range summaries {
		refs[i] = &summaries[i]
	}
	if err := r.attachZones(ctx, refs); err != nil {
		return nil, err
	}
	return summaries, nil
}

// All returns every ledger entry across all projects with zone buckets,
// for the reconciliation diff.
func (r *SummaryRepository) All(ctx context.Context) ([]models.SubActivitySummary, error) {
	var summaries []models.SubActivitySummary
	query := fmt.Sprintf("SELECT %s FROM sub_activity_summaries ORDER BY sub_activity_id", summaryColumns)
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("scan all summaries: %w", err)
	}
	refs := make([]*models.SubActivitySummary, len(summaries))
	for i := range summaries {
		refs[i] = &summaries[i]
	}
	if err := r.attachZones(ctx, refs); err != nil {
		return nil, err
	}
	return summaries, nil
}

// ProjectSummary returns the ledger root for a project.
func (r *SummaryRepository) ProjectSummary(ctx context.Context, projectID string) (*models.ProjectSummary, error) {
	var summary models.ProjectSummary
	const query = `SELECT project_id, sub_activity_count, total_progress_sum, overall_progress, last_report_at, updated_at
        FROM project_summaries WHERE project_id = $1`
	if err := r.db.GetContext(ctx, &summary, query, projectID); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Overwrite replaces the counters of the given ledger entries with the
// recomputed values in a single transaction. Zone buckets are rewritten
// wholesale the way the recompute saw them; the entries themselves are
// never created here.
func (r *SummaryRepository) Overwrite(ctx context.Context, summaries []models.SubActivitySummary) error {
	if len(summaries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin overwrite tx: %w", err)
	}
	now := time.Now().UTC()
	for i := range summaries {
		s := &summaries[i]
		const query = `UPDATE sub_activity_summaries
            SET done_work = $1, pending_work = $2, work_grade_a = $3, work_grade_b = $4, work_grade_c = $5, updated_at = $6
            WHERE sub_activity_id = $7`
		if _, err := tx.ExecContext(ctx, query, s.DoneWork, s.PendingWork, s.WorkGradeA, s.WorkGradeB, s.WorkGradeC, now, s.SubActivityID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("overwrite summary %s: %w", s.SubActivityID, err)
		}
		for _, zone := range s.Zones {
			const zoneQuery = `INSERT INTO zone_progress (sub_activity_id, zone_name, planned_work, done_work, pending_work)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (sub_activity_id, zone_name)
                DO UPDATE SET done_work = EXCLUDED.done_work, pending_work = EXCLUDED.pending_work`
			if _, err := tx.ExecContext(ctx, zoneQuery, s.SubActivityID, zone.ZoneName, zone.PlannedWork, zone.DoneWork, zone.PendingWork); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("overwrite zone %s/%s: %w", s.SubActivityID, zone.ZoneName, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit overwrite tx: %w", err)
	}
	return nil
}

// Anomalies returns recorded ledger anomalies for a project, newest
// first.
func (r *SummaryRepository) Anomalies(ctx context.Context, projectID string, limit int) ([]models.LedgerAnomaly, error) {
	if limit <= 0 {
		limit = 50
	}
	var anomalies []models.LedgerAnomaly
	const query = `SELECT id, project_id, report_id, sub_activity_id, stage, detail, created_at
        FROM ledger_anomalies WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &anomalies, query, projectID, limit); err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	return anomalies, nil
}

func (r *SummaryRepository) attachZones(ctx context.Context, summaries []*models.SubActivitySummary) error {
	if len(summaries) == 0 {
		return nil
	}
	index := make(map[string]*models.SubActivitySummary, len(summaries))
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		index[s.SubActivityID] = s
		ids = append(ids, s.SubActivityID)
	}
	query, args, err := sqlx.In(`SELECT sub_activity_id, zone_name, planned_work, done_work, pending_work
        FROM zone_progress WHERE sub_activity_id IN (?) ORDER BY zone_name`, ids)
	if err != nil {
		return fmt.Errorf("build zone query: %w", err)
	}
	query = r.db.Rebind(query)
	var zones []models.ZoneProgress
	if err := r.db.SelectContext(ctx, &zones, query, args...); err != nil {
		return fmt.Errorf("load zone progress: %w", err)
	}
	for _, zone := range zones {
		if s, ok := index[zone.SubActivityID]; ok {
			s.Zones = append(s.Zones, zone)
		}
	}
	return nil
}
