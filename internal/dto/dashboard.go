package dto

import (
	"time"

	"github.com/noah-isme/siteops-api/internal/models"
)

// DashboardResponse is the aggregated project view served to clients.
// Every number in it comes from the ledger; nothing is recomputed from
// report history on the read path.
type DashboardResponse struct {
	ProjectID        string               `json:"project_id"`
	ProjectName      string               `json:"project_name"`
	Status           models.ProjectStatus `json:"status"`
	OverallProgress  float64              `json:"overall_progress"`
	SubActivityCount int                  `json:"sub_activity_count"`
	LastReportAt     *time.Time           `json:"last_report_at,omitempty"`
	SubActivities    []SubActivityCard    `json:"sub_activities"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// SubActivityCard is the per-item progress block on the dashboard.
type SubActivityCard struct {
	SubActivityID   string      `json:"sub_activity_id"`
	TotalWork       float64     `json:"total_work"`
	DoneWork        float64     `json:"done_work"`
	PendingWork     float64     `json:"pending_work"`
	WorkGradeA      float64     `json:"work_grade_a"`
	WorkGradeB      float64     `json:"work_grade_b"`
	WorkGradeC      float64     `json:"work_grade_c"`
	ProgressPercent float64     `json:"progress_percent"`
	Zones           []ZoneBlock `json:"zones,omitempty"`
}

// ZoneBlock is one zone bucket within a sub-activity card.
type ZoneBlock struct {
	ZoneName    string  `json:"zone_name"`
	PlannedWork float64 `json:"planned_work"`
	DoneWork    float64 `json:"done_work"`
	PendingWork float64 `json:"pending_work"`
}
