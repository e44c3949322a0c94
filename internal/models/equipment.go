package models

import "time"

// EquipmentStatus tracks availability of a piece of site equipment.
type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "available"
	EquipmentInUse       EquipmentStatus = "in_use"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentRetired     EquipmentStatus = "retired"
)

// Equipment is one inventory record owned by a project.
type Equipment struct {
	ID           string          `db:"id" json:"id"`
	ProjectID    string          `db:"project_id" json:"project_id"`
	Name         string          `db:"name" json:"name"`
	Type         string          `db:"type" json:"type"`
	SerialNumber *string         `db:"serial_number" json:"serial_number,omitempty"`
	Status       EquipmentStatus `db:"status" json:"status"`
	ZoneName     *string         `db:"zone_name" json:"zone_name,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// EquipmentFilter captures filtering criteria for listing equipment.
type EquipmentFilter struct {
	ProjectID string
	Status    *EquipmentStatus
	Type      string
	Page      int
	PageSize  int
}
