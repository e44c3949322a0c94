package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/siteops-api/internal/models"
)

// ErrDuplicateCode is returned when an activity code already exists
// within the project.
var ErrDuplicateCode = errors.New("activity code already exists in project")

// ActivityRepository handles activity persistence.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = "id, project_id, name, code, description, created_at, updated_at"

// Create inserts an activity. The (project_id, code) pair is unique.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	const query = `INSERT INTO activities (id, project_id, name, code, description, created_at, updated_at)
        VALUES (:id, :project_id, :name, :code, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// FindByID returns one activity.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	var activity models.Activity
	query := fmt.Sprintf("SELECT %s FROM activities WHERE id = $1", activityColumns)
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListByProject returns all activities of a project ordered by code.
func (r *ActivityRepository) ListByProject(ctx context.Context, projectID string) ([]models.Activity, error) {
	var activities []models.Activity
	query := fmt.Sprintf("SELECT %s FROM activities WHERE project_id = $1 ORDER BY code", activityColumns)
	if err := r.db.SelectContext(ctx, &activities, query, projectID); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// Update mutates name, code and description.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET name = :name, code = :code, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// Delete removes an activity. Sub-activities must be removed first so
// their ledger entries are unwound through SubActivityRepository.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// isUniqueViolation reports a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
