package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type invitationRepo interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	FindByToken(ctx context.Context, token string) (*models.Invitation, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Invitation, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
	MarkExpired(ctx context.Context, id string) error
}

// CreateInvitationRequest is the payload for inviting a user.
type CreateInvitationRequest struct {
	Email string          `json:"email" validate:"required,email"`
	Role  models.UserRole `json:"role" validate:"required,oneof=ADMIN DIRECTOR PM ENGINEER CM"`
}

// InvitationService provisions accounts ahead of registration. An
// invitation carries an opaque token and a TTL; accepting it hands the
// invited role and company to the auth flow.
type InvitationService struct {
	repo      invitationRepo
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInvitationService constructs an InvitationService.
func NewInvitationService(repo invitationRepo, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *InvitationService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationService{
		repo:      repo,
		ttl:       ttl,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues a pending invitation for the given company.
func (s *InvitationService) Create(ctx context.Context, companyID, invitedBy string, req CreateInvitationRequest) (*models.Invitation, error) {
	if companyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "company id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}
	token, err := generateInviteToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invitation token")
	}
	invitation := &models.Invitation{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Email:     req.Email,
		Role:      req.Role,
		Token:     token,
		Status:    models.InvitationPending,
		InvitedBy: invitedBy,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invitation")
	}
	s.logger.Info("invitation created",
		zap.String("company_id", companyID),
		zap.String("email", req.Email),
		zap.String("role", string(req.Role)))
	return invitation, nil
}

// ListByCompany returns all invitations a company has issued.
func (s *InvitationService) ListByCompany(ctx context.Context, companyID string) ([]models.Invitation, error) {
	invitations, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invitations")
	}
	return invitations, nil
}

// Redeem validates a token and marks the invitation accepted. A lapsed
// invitation is flipped to expired on first touch rather than by a
// background sweep.
func (s *InvitationService) Redeem(ctx context.Context, token string) (*models.Invitation, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invitation token is required")
	}
	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invitation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitation")
	}
	switch invitation.Status {
	case models.InvitationAccepted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "invitation already accepted")
	case models.InvitationExpired:
		return nil, appErrors.ErrInviteExpired
	}
	now := s.now().UTC()
	if now.After(invitation.ExpiresAt) {
		if err := s.repo.MarkExpired(ctx, invitation.ID); err != nil {
			s.logger.Warn("failed to mark invitation expired",
				zap.String("invitation_id", invitation.ID), zap.Error(err))
		}
		return nil, appErrors.ErrInviteExpired
	}
	if err := s.repo.MarkAccepted(ctx, invitation.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept invitation")
	}
	invitation.Status = models.InvitationAccepted
	invitation.AcceptedAt = &now
	return invitation, nil
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
