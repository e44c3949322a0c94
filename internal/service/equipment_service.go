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

type equipmentRepo interface {
	Create(ctx context.Context, item *models.Equipment) error
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, *models.Pagination, error)
	Update(ctx context.Context, item *models.Equipment) error
	Delete(ctx context.Context, id string) error
}

// CreateEquipmentRequest is the payload for registering equipment.
type CreateEquipmentRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=200"`
	Type         string  `json:"type" validate:"required,min=2,max=100"`
	SerialNumber *string `json:"serial_number"`
	ZoneName     *string `json:"zone_name"`
}

// UpdateEquipmentRequest carries mutable equipment fields.
type UpdateEquipmentRequest struct {
	Name     *string                 `json:"name" validate:"omitempty,min=2,max=200"`
	Status   *models.EquipmentStatus `json:"status" validate:"omitempty,oneof=available in_use maintenance retired"`
	ZoneName *string                 `json:"zone_name"`
}

// EquipmentService manages the per-project equipment inventory.
type EquipmentService struct {
	repo      equipmentRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEquipmentService constructs an EquipmentService.
func NewEquipmentService(repo equipmentRepo, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{repo: repo, validator: validate, logger: logger}
}

// Create registers a piece of equipment under a project.
func (s *EquipmentService) Create(ctx context.Context, projectID string, req CreateEquipmentRequest) (*models.Equipment, error) {
	if projectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item := &models.Equipment{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Name:         req.Name,
		Type:         req.Type,
		SerialNumber: req.SerialNumber,
		Status:       models.EquipmentAvailable,
		ZoneName:     req.ZoneName,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	return item, nil
}

// Get returns one equipment record by id.
func (s *EquipmentService) Get(ctx context.Context, id string) (*models.Equipment, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	return item, nil
}

// List returns equipment matching the filter.
func (s *EquipmentService) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, *models.Pagination, error) {
	items, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return items, pagination, nil
}

// Update applies partial changes to an equipment record.
func (s *EquipmentService) Update(ctx context.Context, id string, req UpdateEquipmentRequest) (*models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.ZoneName != nil {
		item.ZoneName = req.ZoneName
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	return item, nil
}

// Delete removes an equipment record.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	return nil
}
