package models

import "time"

// SubActivitySummary is the ledger entry for one sub-activity: the
// denormalized progress counters dashboards read instead of scanning
// report history. It is created together with the sub-activity and
// mutated only through relative increments inside the same transaction
// as the report submission or approval that caused the change.
//
// WorkGradeA + WorkGradeB + WorkGradeC equals DoneWork as long as every
// approval went through the approval engine. DoneWork + PendingWork may
// exceed TotalWork: over-reporting is not validated anywhere.
type SubActivitySummary struct {
	SubActivityID string    `db:"sub_activity_id" json:"sub_activity_id"`
	ProjectID     string    `db:"project_id" json:"project_id"`
	TotalWork     float64   `db:"total_work" json:"total_work"`
	DoneWork      float64   `db:"done_work" json:"done_work"`
	PendingWork   float64   `db:"pending_work" json:"pending_work"`
	WorkGradeA    float64   `db:"work_grade_a" json:"work_grade_a"`
	WorkGradeB    float64   `db:"work_grade_b" json:"work_grade_b"`
	WorkGradeC    float64   `db:"work_grade_c" json:"work_grade_c"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Zones []ZoneProgress `json:"zones,omitempty"`
}

// ProgressPercent returns DoneWork as a percentage of TotalWork,
// 0 when no work is planned.
func (s *SubActivitySummary) ProgressPercent() float64 {
	if s.TotalWork <= 0 {
		return 0
	}
	return s.DoneWork / s.TotalWork * 100
}

// ZoneProgress is one bucket of a ledger entry's per-zone progress map.
// Buckets are seeded when the sub-activity is created; report and
// approval processing update existing buckets and never create new ones.
type ZoneProgress struct {
	SubActivityID string  `db:"sub_activity_id" json:"-"`
	ZoneName      string  `db:"zone_name" json:"zone_name"`
	PlannedWork   float64 `db:"planned_work" json:"planned_work"`
	DoneWork      float64 `db:"done_work" json:"done_work"`
	PendingWork   float64 `db:"pending_work" json:"pending_work"`
}

// ProjectSummary is the ledger root for one project. OverallProgress is
// the unweighted average of per-sub-activity progress percentages:
// TotalProgressSum / SubActivityCount. Only the approval engine moves
// TotalProgressSum.
type ProjectSummary struct {
	ProjectID        string     `db:"project_id" json:"project_id"`
	SubActivityCount int        `db:"sub_activity_count" json:"sub_activity_count"`
	TotalProgressSum float64    `db:"total_progress_sum" json:"total_progress_sum"`
	OverallProgress  float64    `db:"overall_progress" json:"overall_progress"`
	LastReportAt     *time.Time `db:"last_report_at" json:"last_report_at,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// LedgerAnomaly records a ledger entry that was missing while a report
// or approval referenced it. The affected item's ledger update is
// skipped and the gap is left for the reconciliation job to surface.
type LedgerAnomaly struct {
	ID            string    `db:"id" json:"id"`
	ProjectID     string    `db:"project_id" json:"project_id"`
	ReportID      string    `db:"report_id" json:"report_id"`
	SubActivityID string    `db:"sub_activity_id" json:"sub_activity_id"`
	Stage         string    `db:"stage" json:"stage"`
	Detail        string    `db:"detail" json:"detail"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Anomaly stages.
const (
	AnomalyStageSubmit  = "submit"
	AnomalyStageApprove = "approve"
)
