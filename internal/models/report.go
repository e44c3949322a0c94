package models

import "time"

// ReportStatus is the lifecycle state of a daily report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "Pending"
	ReportApproved ReportStatus = "Approved"
)

// WorkGrade is the quality classification assigned at approval time.
// A grade applies uniformly to every item of the approved report.
type WorkGrade string

const (
	GradeA WorkGrade = "A"
	GradeB WorkGrade = "B"
	GradeC WorkGrade = "C"
)

// Valid reports whether the grade is one of A, B or C.
func (g WorkGrade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC:
		return true
	}
	return false
}

// DailyReport is the header of one dated submission of work-done
// claims. Immutable after creation except for the single Pending to
// Approved transition performed by the approval engine.
type DailyReport struct {
	ID         string       `db:"id" json:"id"`
	ProjectID  string       `db:"project_id" json:"project_id"`
	EngineerID string       `db:"engineer_id" json:"engineer_id"`
	CMID       string       `db:"cm_id" json:"cm_id"`
	ZoneID     *string      `db:"zone_id" json:"zone_id,omitempty"`
	ReportDate time.Time    `db:"report_date" json:"report_date"`
	DiaryDate  string       `db:"diary_date" json:"diary_date"`
	Status     ReportStatus `db:"status" json:"status"`
	Grade      *WorkGrade   `db:"grade" json:"grade,omitempty"`
	Remarks    *string      `db:"remarks" json:"remarks,omitempty"`
	ApprovedAt *time.Time   `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`

	Items []ReportItem `json:"items,omitempty"`
}

// DiaryDate derives the compact numeric day key (YYYYMMDD) used for
// day-level grouping and search of reports.
func DiaryDate(t time.Time) string {
	return t.UTC().Format("20060102")
}

// ReportItem is one line of a daily report, tied to exactly one
// sub-activity. Immutable after creation.
type ReportItem struct {
	ID             string    `db:"id" json:"id"`
	ReportID       string    `db:"report_id" json:"report_id"`
	SubActivityID  string    `db:"sub_activity_id" json:"sub_activity_id"`
	ZoneID         *string   `db:"zone_id" json:"zone_id,omitempty"`
	ZoneName       *string   `db:"zone_name" json:"zone_name,omitempty"`
	Quantity       float64   `db:"quantity" json:"quantity"`
	GeneralForeman *string   `db:"general_foreman" json:"general_foreman,omitempty"`
	Foreman        *string   `db:"foreman" json:"foreman,omitempty"`
	Road           *string   `db:"road" json:"road,omitempty"`
	Subcontractor  *string   `db:"subcontractor" json:"subcontractor,omitempty"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ReportFilter captures filtering criteria for listing daily reports.
type ReportFilter struct {
	ProjectID string
	Status    *ReportStatus
	DiaryDate string
	ZoneID    string
	Page      int
	PageSize  int
}
