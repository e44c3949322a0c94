package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// EquipmentRepository handles equipment inventory persistence.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository creates a new equipment repository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentColumns = "id, project_id, name, type, serial_number, status, zone_name, created_at, updated_at"

// Create inserts an equipment record.
func (r *EquipmentRepository) Create(ctx context.Context, item *models.Equipment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.EquipmentAvailable
	}
	const query = `INSERT INTO equipment (id, project_id, name, type, serial_number, status, zone_name, created_at, updated_at)
        VALUES (:id, :project_id, :name, :type, :serial_number, :status, :zone_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

// FindByID returns one equipment record.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	var item models.Equipment
	query := fmt.Sprintf("SELECT %s FROM equipment WHERE id = $1", equipmentColumns)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns equipment matching the filter.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, *models.Pagination, error) {
	where := " WHERE project_id = $1"
	args := []interface{}{filter.ProjectID}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM equipment"+where, args...); err != nil {
		return nil, nil, fmt.Errorf("count equipment: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	query := fmt.Sprintf("SELECT %s FROM equipment%s ORDER BY name LIMIT $%d OFFSET $%d",
		equipmentColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var items []models.Equipment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list equipment: %w", err)
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update mutates an equipment record.
func (r *EquipmentRepository) Update(ctx context.Context, item *models.Equipment) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment SET name = :name, type = :type, serial_number = :serial_number, status = :status, zone_name = :zone_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

// Delete removes an equipment record.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}
