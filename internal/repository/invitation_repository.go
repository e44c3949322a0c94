package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siteops-api/internal/models"
)

// InvitationRepository handles user invitation persistence.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository creates a new invitation repository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = "id, company_id, email, role, token, status, invited_by, expires_at, accepted_at, created_at"

// Create inserts an invitation.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	invitation.CreatedAt = time.Now().UTC()
	if invitation.Status == "" {
		invitation.Status = models.InvitationPending
	}
	const query = `INSERT INTO invitations (id, company_id, email, role, token, status, invited_by, expires_at, created_at)
        VALUES (:id, :company_id, :email, :role, :token, :status, :invited_by, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invitation); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// FindByToken returns the invitation carrying the opaque token.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var invitation models.Invitation
	query := fmt.Sprintf("SELECT %s FROM invitations WHERE token = $1", invitationColumns)
	if err := r.db.GetContext(ctx, &invitation, query, token); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListByCompany returns invitations for a company, newest first.
func (r *InvitationRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	query := fmt.Sprintf("SELECT %s FROM invitations WHERE company_id = $1 ORDER BY created_at DESC", invitationColumns)
	if err := r.db.SelectContext(ctx, &invitations, query, companyID); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// MarkAccepted flips a pending invitation to accepted.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE invitations SET status = $1, accepted_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.InvitationAccepted, at, id, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("invitation %s is not pending", id)
	}
	return nil
}

// MarkExpired flips a pending invitation past its deadline to expired.
func (r *InvitationRepository) MarkExpired(ctx context.Context, id string) error {
	const query = `UPDATE invitations SET status = $1 WHERE id = $2 AND status = $3`
	if _, err := r.db.ExecContext(ctx, query, models.InvitationExpired, id, models.InvitationPending); err != nil {
		return fmt.Errorf("expire invitation: %w", err)
	}
	return nil
}
