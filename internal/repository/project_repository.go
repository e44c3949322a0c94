package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// ProjectRepository handles project persistence. Creating a project
// also creates its ledger root so the approval engine always has a
// project summary to fold progress into.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = "id, company_id, name, director_id, pm_id, status, total_work, done_work, approved_work, created_at, updated_at"

// Create inserts a project together with its empty summary root.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.ProjectActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project tx: %w", err)
	}
	const query = `INSERT INTO projects (id, company_id, name, director_id, pm_id, status, total_work, done_work, approved_work, created_at, updated_at)
        VALUES (:id, :company_id, :name, :director_id, :pm_id, :status, :total_work, :done_work, :approved_work, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, project); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert project: %w", err)
	}
	const summaryQuery = `INSERT INTO project_summaries (project_id, sub_activity_count, total_progress_sum, overall_progress, updated_at)
        VALUES ($1, 0, 0, 0, $2)`
	if _, err := tx.ExecContext(ctx, summaryQuery, project.ID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert project summary: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project tx: %w", err)
	}
	return nil
}

// FindByID returns one project.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects matching the filter.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.CompanyID != "" {
		where += fmt.Sprintf(" AND company_id = $%d", len(args)+1)
		args = append(args, filter.CompanyID)
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM projects"+where, args...); err != nil {
		return nil, nil, fmt.Errorf("count projects: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	query := fmt.Sprintf("SELECT %s FROM projects%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		projectColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update mutates the mutable project fields. Projects are never hard
// deleted; closing is a status update.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects
        SET name = :name, director_id = :director_id, pm_id = :pm_id, status = :status,
            total_work = :total_work, done_work = :done_work, approved_work = :approved_work, updated_at = :updated_at
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, project)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s not found", project.ID)
	}
	return nil
}
