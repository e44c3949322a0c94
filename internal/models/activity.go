package models

import "time"

// Activity groups Bill-of-Quantities items under a project.
// The code is unique within its project.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubActivity is a single Bill-of-Quantities item under an activity.
// TotalWork is the planned quantity in the item's unit; progress against
// it lives in the sub-activity's ledger entry, not here.
type SubActivity struct {
	ID         string    `db:"id" json:"id"`
	ActivityID string    `db:"activity_id" json:"activity_id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	Name       string    `db:"name" json:"name"`
	BoQCode    string    `db:"boq_code" json:"boq_code"`
	Unit       string    `db:"unit" json:"unit"`
	TotalWork  float64   `db:"total_work" json:"total_work"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ZonePlan is an optional per-zone planned quantity attached to a
// sub-activity at creation time. It seeds the zone buckets of the
// sub-activity's ledger entry.
type ZonePlan struct {
	ZoneName    string  `json:"zone_name" validate:"required"`
	PlannedWork float64 `json:"planned_work" validate:"gte=0"`
}
