package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/repository"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type activityRepo interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type subActivityRepo interface {
	Create(ctx context.Context, sub *models.SubActivity, zones []models.ZonePlan) error
	FindByID(ctx context.Context, id string) (*models.SubActivity, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.SubActivity, error)
	Update(ctx context.Context, sub *models.SubActivity) error
	Delete(ctx context.Context, id string) error
}

// CreateActivityRequest is the payload for creating an activity.
type CreateActivityRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Code        string  `json:"code" validate:"required,min=1,max=50"`
	Description *string `json:"description"`
}

// UpdateActivityRequest carries mutable activity fields.
type UpdateActivityRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description"`
}

// CreateSubActivityRequest is the payload for creating a sub-activity.
// Zones, when present, seed the per-zone buckets of the new ledger
// entry; quantities reported later against unlisted zones are dropped
// from the zone breakdown.
type CreateSubActivityRequest struct {
	Name      string            `json:"name" validate:"required,min=2,max=200"`
	BoQCode   string            `json:"boq_code" validate:"required,min=1,max=50"`
	Unit      string            `json:"unit" validate:"required,min=1,max=20"`
	TotalWork float64           `json:"total_work" validate:"required,gt=0"`
	Zones     []models.ZonePlan `json:"zones" validate:"omitempty,dive"`
}

// UpdateSubActivityRequest carries mutable sub-activity fields.
type UpdateSubActivityRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Unit      *string  `json:"unit" validate:"omitempty,min=1,max=20"`
	TotalWork *float64 `json:"total_work" validate:"omitempty,gt=0"`
}

// ActivityService manages the Bill-of-Quantities tree: activities and
// their sub-activities. Creating a sub-activity seeds its ledger entry
// and bumps the project summary's denominator in the same transaction;
// deleting one unwinds both.
type ActivityService struct {
	activities    activityRepo
	subActivities subActivityRepo
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(activities activityRepo, subActivities subActivityRepo, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities:    activities,
		subActivities: subActivities,
		validator:     validate,
		logger:        logger,
	}
}

// CreateActivity registers an activity under a project.
func (s *ActivityService) CreateActivity(ctx context.Context, projectID string, req CreateActivityRequest) (*models.Activity, error) {
	if projectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity := &models.Activity{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "activity code already exists in this project")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// GetActivity returns one activity by id.
func (s *ActivityService) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// ListActivities returns all activities of a project.
func (s *ActivityService) ListActivities(ctx context.Context, projectID string) ([]models.Activity, error) {
	activities, err := s.activities.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}

// UpdateActivity applies partial changes to an activity.
func (s *ActivityService) UpdateActivity(ctx context.Context, id string, req UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity, err := s.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		activity.Name = *req.Name
	}
	if req.Description != nil {
		activity.Description = req.Description
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// DeleteActivity removes an activity that has no sub-activities left.
func (s *ActivityService) DeleteActivity(ctx context.Context, id string) error {
	subs, err := s.subActivities.ListByActivity(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sub-activities")
	}
	if len(subs) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "activity still has sub-activities")
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}

// CreateSubActivity registers a Bill-of-Quantities item and seeds its
// ledger entry with zeroed counters and the requested zone buckets.
func (s *ActivityService) CreateSubActivity(ctx context.Context, activityID string, req CreateSubActivityRequest) (*models.SubActivity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sub-activity payload")
	}
	activity, err := s.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	sub := &models.SubActivity{
		ID:         uuid.NewString(),
		ActivityID: activity.ID,
		ProjectID:  activity.ProjectID,
		Name:       req.Name,
		BoQCode:    req.BoQCode,
		Unit:       req.Unit,
		TotalWork:  req.TotalWork,
	}
	if err := s.subActivities.Create(ctx, sub, req.Zones); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sub-activity")
	}
	s.logger.Info("sub-activity created",
		zap.String("sub_activity_id", sub.ID),
		zap.String("project_id", sub.ProjectID),
		zap.Int("zones", len(req.Zones)))
	return sub, nil
}

// GetSubActivity returns one sub-activity by id.
func (s *ActivityService) GetSubActivity(ctx context.Context, id string) (*models.SubActivity, error) {
	sub, err := s.subActivities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sub-activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sub-activity")
	}
	return sub, nil
}

// ListSubActivities returns all sub-activities of an activity.
func (s *ActivityService) ListSubActivities(ctx context.Context, activityID string) ([]models.SubActivity, error) {
	subs, err := s.subActivities.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sub-activities")
	}
	return subs, nil
}

// UpdateSubActivity applies partial changes. A total-work change is
// mirrored into the ledger entry so progress percentages stay on the
// current plan.
func (s *ActivityService) UpdateSubActivity(ctx context.Context, id string, req UpdateSubActivityRequest) (*models.SubActivity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sub-activity payload")
	}
	sub, err := s.GetSubActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.Unit != nil {
		sub.Unit = *req.Unit
	}
	if req.TotalWork != nil {
		sub.TotalWork = *req.TotalWork
	}
	if err := s.subActivities.Update(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sub-activity")
	}
	return sub, nil
}

// DeleteSubActivity removes the item together with its ledger entry and
// unwinds the project summary's denominator.
func (s *ActivityService) DeleteSubActivity(ctx context.Context, id string) error {
	if _, err := s.GetSubActivity(ctx, id); err != nil {
		return err
	}
	if err := s.subActivities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sub-activity")
	}
	s.logger.Info("sub-activity deleted", zap.String("sub_activity_id", id))
	return nil
}
