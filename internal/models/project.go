package models

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive ProjectStatus = "active"
	ProjectClosed ProjectStatus = "closed"
)

// Project represents a construction project owned by a company.
// Projects are never hard-deleted; closing a project flips its status.
type Project struct {
	ID           string        `db:"id" json:"id"`
	CompanyID    string        `db:"company_id" json:"company_id"`
	Name         string        `db:"name" json:"name"`
	DirectorID   *string       `db:"director_id" json:"director_id,omitempty"`
	PMID         *string       `db:"pm_id" json:"pm_id,omitempty"`
	Status       ProjectStatus `db:"status" json:"status"`
	TotalWork    float64       `db:"total_work" json:"total_work"`
	DoneWork     float64       `db:"done_work" json:"done_work"`
	ApprovedWork float64       `db:"approved_work" json:"approved_work"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures filtering criteria for listing projects.
type ProjectFilter struct {
	CompanyID string
	Status    *ProjectStatus
	Search    string
	Page      int
	PageSize  int
}
