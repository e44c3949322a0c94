package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/siteops-api/internal/models"
)

// LedgerTx exposes the transactional primitives the report and approval
// engines need. Every method runs inside the transaction opened by
// LedgerRepository.Transact, so counter updates land atomically with the
// report mutation that caused them. All counter writes are relative
// increments; absolute values are only ever written by the
// reconciliation batch.
type LedgerTx interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	InsertReport(ctx context.Context, report *models.DailyReport) error
	InsertItem(ctx context.Context, item *models.ReportItem) error
	ReportForUpdate(ctx context.Context, projectID, reportID string) (*models.DailyReport, error)
	ItemsByReport(ctx context.Context, reportID string) ([]models.ReportItem, error)
	SummariesForUpdate(ctx context.Context, subActivityIDs []string) (map[string]models.SubActivitySummary, error)
	AddPending(ctx context.Context, subActivityID string, qty float64) (bool, error)
	AddZonePending(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error)
	MovePendingToDone(ctx context.Context, subActivityID string, qty float64, grade models.WorkGrade) (bool, error)
	MoveZonePendingToDone(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error)
	MarkApproved(ctx context.Context, reportID string, grade models.WorkGrade, at time.Time) error
	ApplyProjectProgress(ctx context.Context, projectID string, delta float64, at time.Time) error
	RecordAnomaly(ctx context.Context, anomaly *models.LedgerAnomaly) error
}

// LedgerRepository owns the read-modify-write transactions against the
// ledger tables. Concurrent transactions touching the same ledger rows
// serialize on row locks, so increments are never lost; transient
// serialization and deadlock failures are retried before surfacing.
type LedgerRepository struct {
	db         *sqlx.DB
	maxRetries int
}

// NewLedgerRepository creates a ledger repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db, maxRetries: 3}
}

// Transact runs fn inside a database transaction, retrying on transient
// conflicts. Either every write fn performed is committed or none are.
func (r *LedgerRepository) Transact(ctx context.Context, fn func(tx LedgerTx) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("ledger transaction exhausted retries: %w", lastErr)
}

func (r *LedgerRepository) runOnce(ctx context.Context, fn func(tx LedgerTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	if err := fn(&ledgerTx{tx: tx}); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// isRetryable reports whether the error is a transient Postgres
// serialization failure (40001) or deadlock (40P01).
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

type ledgerTx struct {
	tx *sqlx.Tx
}

func (l *ledgerTx) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var exists bool
	if err := l.tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)", projectID); err != nil {
		return false, fmt.Errorf("check project %s: %w", projectID, err)
	}
	return exists, nil
}

func (l *ledgerTx) InsertReport(ctx context.Context, report *models.DailyReport) error {
	const query = `INSERT INTO daily_reports (id, project_id, engineer_id, cm_id, zone_id, report_date, diary_date, status, remarks, created_at)
        VALUES (:id, :project_id, :engineer_id, :cm_id, :zone_id, :report_date, :diary_date, :status, :remarks, :created_at)`
	if _, err := l.tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (l *ledgerTx) InsertItem(ctx context.Context, item *models.ReportItem) error {
	const query = `INSERT INTO report_items (id, report_id, sub_activity_id, zone_id, zone_name, quantity, general_foreman, foreman, road, subcontractor, remarks, created_at)
        VALUES (:id, :report_id, :sub_activity_id, :zone_id, :zone_name, :quantity, :general_foreman, :foreman, :road, :subcontractor, :remarks, :created_at)`
	if _, err := l.tx.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("insert report item: %w", err)
	}
	return nil
}

func (l *ledgerTx) ReportForUpdate(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	const query = `SELECT id, project_id, engineer_id, cm_id, zone_id, report_date, diary_date, status, grade, remarks, approved_at, created_at
        FROM daily_reports WHERE id = $1 AND project_id = $2 FOR UPDATE`
	var report models.DailyReport
	if err := l.tx.GetContext(ctx, &report, query, reportID, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock report %s: %w", reportID, err)
	}
	return &report, nil
}

func (l *ledgerTx) ItemsByReport(ctx context.Context, reportID string) ([]models.ReportItem, error) {
	const query = `SELECT id, report_id, sub_activity_id, zone_id, zone_name, quantity, general_foreman, foreman, road, subcontractor, remarks, created_at
        FROM report_items WHERE report_id = $1 ORDER BY created_at, id`
	var items []models.ReportItem
	if err := l.tx.SelectContext(ctx, &items, query, reportID); err != nil {
		return nil, fmt.Errorf("load report items: %w", err)
	}
	return items, nil
}

// SummariesForUpdate locks and returns the ledger entries for the given
// sub-activities, keyed by sub-activity ID. Missing entries are simply
// absent from the result; the caller decides how to treat the gap.
func (l *ledgerTx) SummariesForUpdate(ctx context.Context, subActivityIDs []string) (map[string]models.SubActivitySummary, error) {
	result := make(map[string]models.SubActivitySummary, len(subActivityIDs))
	if len(subActivityIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(subActivityIDs))
	args := make([]interface{}, len(subActivityIDs))
	for i, id := range subActivityIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT sub_activity_id, project_id, total_work, done_work, pending_work, work_grade_a, work_grade_b, work_grade_c, updated_at
        FROM sub_activity_summaries WHERE sub_activity_id IN (%s) FOR UPDATE`, strings.Join(placeholders, ","))
	rows, err := l.tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var summary models.SubActivitySummary
		if err := rows.StructScan(&summary); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		result[summary.SubActivityID] = summary
	}
	return result, rows.Err()
}

func (l *ledgerTx) AddPending(ctx context.Context, subActivityID string, qty float64) (bool, error) {
	const query = `UPDATE sub_activity_summaries SET pending_work = pending_work + $1, updated_at = $2 WHERE sub_activity_id = $3`
	res, err := l.tx.ExecContext(ctx, query, qty, time.Now().UTC(), subActivityID)
	if err != nil {
		return false, fmt.Errorf("add pending for %s: %w", subActivityID, err)
	}
	return affected(res)
}

// AddZonePending updates an existing zone bucket only; zone buckets are
// seeded at sub-activity creation and never auto-created here.
func (l *ledgerTx) AddZonePending(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error) {
	const query = `UPDATE zone_progress SET pending_work = pending_work + $1 WHERE sub_activity_id = $2 AND zone_name = $3`
	res, err := l.tx.ExecContext(ctx, query, qty, subActivityID, zoneName)
	if err != nil {
		return false, fmt.Errorf("add zone pending for %s/%s: %w", subActivityID, zoneName, err)
	}
	return affected(res)
}

func (l *ledgerTx) MovePendingToDone(ctx context.Context, subActivityID string, qty float64, grade models.WorkGrade) (bool, error) {
	column, err := gradeColumn(grade)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`UPDATE sub_activity_summaries
        SET pending_work = pending_work - $1, done_work = done_work + $1, %s = %s + $1, updated_at = $2
        WHERE sub_activity_id = $3`, column, column)
	res, err := l.tx.ExecContext(ctx, query, qty, time.Now().UTC(), subActivityID)
	if err != nil {
		return false, fmt.Errorf("move pending to done for %s: %w", subActivityID, err)
	}
	return affected(res)
}

func (l *ledgerTx) MoveZonePendingToDone(ctx context.Context, subActivityID, zoneName string, qty float64) (bool, error) {
	const query = `UPDATE zone_progress SET pending_work = pending_work - $1, done_work = done_work + $1 WHERE sub_activity_id = $2 AND zone_name = $3`
	res, err := l.tx.ExecContext(ctx, query, qty, subActivityID, zoneName)
	if err != nil {
		return false, fmt.Errorf("move zone pending to done for %s/%s: %w", subActivityID, zoneName, err)
	}
	return affected(res)
}

func (l *ledgerTx) MarkApproved(ctx context.Context, reportID string, grade models.WorkGrade, at time.Time) error {
	const query = `UPDATE daily_reports SET status = $1, grade = $2, approved_at = $3 WHERE id = $4`
	if _, err := l.tx.ExecContext(ctx, query, models.ReportApproved, grade, at, reportID); err != nil {
		return fmt.Errorf("mark report %s approved: %w", reportID, err)
	}
	return nil
}

// ApplyProjectProgress folds the approval's percent delta into the
// project summary root and refreshes the derived unweighted average.
func (l *ledgerTx) ApplyProjectProgress(ctx context.Context, projectID string, delta float64, at time.Time) error {
	const query = `UPDATE project_summaries
        SET total_progress_sum = total_progress_sum + $1,
            overall_progress = CASE WHEN sub_activity_count > 0 THEN (total_progress_sum + $1) / sub_activity_count ELSE 0 END,
            last_report_at = $2,
            updated_at = $2
        WHERE project_id = $3`
	if _, err := l.tx.ExecContext(ctx, query, delta, at, projectID); err != nil {
		return fmt.Errorf("apply project progress for %s: %w", projectID, err)
	}
	return nil
}

func (l *ledgerTx) RecordAnomaly(ctx context.Context, anomaly *models.LedgerAnomaly) error {
	const query = `INSERT INTO ledger_anomalies (id, project_id, report_id, sub_activity_id, stage, detail, created_at)
        VALUES (:id, :project_id, :report_id, :sub_activity_id, :stage, :detail, :created_at)`
	if _, err := l.tx.NamedExecContext(ctx, query, anomaly); err != nil {
		return fmt.Errorf("record ledger anomaly: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func gradeColumn(grade models.WorkGrade) (string, error) {
	switch grade {
	case models.GradeA:
		return "work_grade_a", nil
	case models.GradeB:
		return "work_grade_b", nil
	case models.GradeC:
		return "work_grade_c", nil
	}
	return "", fmt.Errorf("unknown work grade %q", grade)
}
