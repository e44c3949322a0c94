package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// SubActivityRepository handles Bill-of-Quantities item persistence.
// Creating a sub-activity seeds its ledger entry and zone buckets and
// bumps the project's sub-activity count in the same transaction, so a
// ledger entry always exists before the first report can reference it.
type SubActivityRepository struct {
	db *sqlx.DB
}

// NewSubActivityRepository creates a new sub-activity repository.
func NewSubActivityRepository(db *sqlx.DB) *SubActivityRepository {
	return &SubActivityRepository{db: db}
}

const subActivityColumns = "id, activity_id, project_id, name, boq_code, unit, total_work, created_at, updated_at"

// Create inserts the sub-activity, its ledger entry and zone buckets.
func (r *SubActivityRepository) Create(ctx context.Context, sub *models.SubActivity, zones []models.ZonePlan) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create sub-activity tx: %w", err)
	}
	const query = `INSERT INTO sub_activities (id, activity_id, project_id, name, boq_code, unit, total_work, created_at, updated_at)
        VALUES (:id, :activity_id, :project_id, :name, :boq_code, :unit, :total_work, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, sub); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert sub-activity: %w", err)
	}
	const summaryQuery = `INSERT INTO sub_activity_summaries (sub_activity_id, project_id, total_work, done_work, pending_work, work_grade_a, work_grade_b, work_grade_c, updated_at)
        VALUES ($1, $2, $3, 0, 0, 0, 0, 0, $4)`
	if _, err := tx.ExecContext(ctx, summaryQuery, sub.ID, sub.ProjectID, sub.TotalWork, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("seed summary: %w", err)
	}
	for _, zone := range zones {
		const zoneQuery = `INSERT INTO zone_progress (sub_activity_id, zone_name, planned_work, done_work, pending_work)
            VALUES ($1, $2, $3, 0, 0)`
		if _, err := tx.ExecContext(ctx, zoneQuery, sub.ID, zone.ZoneName, zone.PlannedWork); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("seed zone bucket %s: %w", zone.ZoneName, err)
		}
	}
	const countQuery = `UPDATE project_summaries
        SET sub_activity_count = sub_activity_count + 1,
            overall_progress = CASE WHEN sub_activity_count + 1 > 0 THEN total_progress_sum / (sub_activity_count + 1) ELSE 0 END,
            updated_at = $1
        WHERE project_id = $2`
	if _, err := tx.ExecContext(ctx, countQuery, now, sub.ProjectID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("bump sub-activity count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create sub-activity tx: %w", err)
	}
	return nil
}

// FindByID returns one sub-activity.
func (r *SubActivityRepository) FindByID(ctx context.Context, id string) (*models.SubActivity, error) {
	var sub models.SubActivity
	query := fmt.Sprintf("SELECT %s FROM sub_activities WHERE id = $1", subActivityColumns)
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByActivity returns all sub-activities under an activity.
func (r *SubActivityRepository) ListByActivity(ctx context.Context, activityID string) ([]models.SubActivity, error) {
	var subs []models.SubActivity
	query := fmt.Sprintf("SELECT %s FROM sub_activities WHERE activity_id = $1 ORDER BY boq_code", subActivityColumns)
	if err := r.db.SelectContext(ctx, &subs, query, activityID); err != nil {
		return nil, fmt.Errorf("list sub-activities: %w", err)
	}
	return subs, nil
}

// Update mutates the editable fields and keeps the ledger entry's
// planned total in step.
func (r *SubActivityRepository) Update(ctx context.Context, sub *models.SubActivity) error {
	sub.UpdatedAt = time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update sub-activity tx: %w", err)
	}
	const query = `UPDATE sub_activities SET name = :name, boq_code = :boq_code, unit = :unit, total_work = :total_work, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, sub); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update sub-activity: %w", err)
	}
	const summaryQuery = `UPDATE sub_activity_summaries SET total_work = $1, updated_at = $2 WHERE sub_activity_id = $3`
	if _, err := tx.ExecContext(ctx, summaryQuery, sub.TotalWork, sub.UpdatedAt, sub.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("sync summary total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update sub-activity tx: %w", err)
	}
	return nil
}

// Delete removes a sub-activity with its ledger entry and zone buckets
// and unwinds its contribution to the project summary.
func (r *SubActivityRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete sub-activity tx: %w", err)
	}
	var summary models.SubActivitySummary
	const lookup = `SELECT sub_activity_id, project_id, total_work, done_work, pending_work, work_grade_a, work_grade_b, work_grade_c, updated_at
        FROM sub_activity_summaries WHERE sub_activity_id = $1 FOR UPDATE`
	hasSummary := true
	if err := tx.GetContext(ctx, &summary, lookup, id); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("lock sub-activity summary: %w", err)
		}
		hasSummary = false
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM zone_progress WHERE sub_activity_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete zone buckets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sub_activity_summaries WHERE sub_activity_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete summary: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sub_activities WHERE id = $1", id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete sub-activity: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if deleted > 0 && hasSummary {
		now := time.Now().UTC()
		const countQuery = `UPDATE project_summaries
            SET sub_activity_count = sub_activity_count - 1,
                total_progress_sum = total_progress_sum - $1,
                overall_progress = CASE WHEN sub_activity_count - 1 > 0 THEN (total_progress_sum - $1) / (sub_activity_count - 1) ELSE 0 END,
                updated_at = $2
            WHERE project_id = $3`
		if _, err := tx.ExecContext(ctx, countQuery, summary.ProgressPercent(), now, summary.ProjectID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("unwind project summary: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete sub-activity tx: %w", err)
	}
	return nil
}
