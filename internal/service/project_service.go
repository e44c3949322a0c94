package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type projectRepo interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error)
	Update(ctx context.Context, project *models.Project) error
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	CompanyID  string  `json:"company_id" validate:"required"`
	Name       string  `json:"name" validate:"required,min=2,max=200"`
	DirectorID *string `json:"director_id"`
	PMID       *string `json:"pm_id"`
}

// UpdateProjectRequest carries mutable project fields.
type UpdateProjectRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=200"`
	DirectorID *string `json:"director_id"`
	PMID       *string `json:"pm_id"`
}

// ProjectService manages project lifecycle. Creating a project also
// seeds its ledger root, so dashboards never encounter a project
// without a summary row.
type ProjectService struct {
	repo      projectRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(repo projectRepo, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, validator: validate, logger: logger}
}

// Create registers a project and its summary root.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project := &models.Project{
		ID:         uuid.NewString(),
		CompanyID:  req.CompanyID,
		Name:       req.Name,
		DirectorID: req.DirectorID,
		PMID:       req.PMID,
		Status:     models.ProjectActive,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("company_id", project.CompanyID))
	return project, nil
}

// Get returns one project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, pagination, nil
}

// Update applies partial changes to an active project.
func (s *ProjectService) Update(ctx context.Context, id string, req UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectClosed {
		return nil, appErrors.ErrProjectClosed
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.DirectorID != nil {
		project.DirectorID = req.DirectorID
	}
	if req.PMID != nil {
		project.PMID = req.PMID
	}
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Close flips the project to closed. Closing is idempotent and does not
// touch the ledger; historic reports stay readable.
func (s *ProjectService) Close(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectClosed {
		return project, nil
	}
	project.Status = models.ProjectClosed
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close project")
	}
	s.logger.Info("project closed", zap.String("project_id", id))
	return project, nil
}
