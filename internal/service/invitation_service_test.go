package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type mockInvitationRepo struct {
	byToken  map[string]*models.Invitation
	accepted []string
	expired  []string
	created  []*models.Invitation
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{byToken: map[string]*models.Invitation{}}
}

func (m *mockInvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	m.created = append(m.created, invitation)
	m.byToken[invitation.Token] = invitation
	return nil
}

func (m *mockInvitationRepo) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	invitation, ok := m.byToken[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return invitation, nil
}

func (m *mockInvitationRepo) ListByCompany(ctx context.Context, companyID string) ([]models.Invitation, error) {
	var out []models.Invitation
	for _, inv := range m.byToken {
		if inv.CompanyID == companyID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *mockInvitationRepo) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	m.accepted = append(m.accepted, id)
	return nil
}

func (m *mockInvitationRepo) MarkExpired(ctx context.Context, id string) error {
	m.expired = append(m.expired, id)
	return nil
}

func TestInvitationCreate(t *testing.T) {
	repo := newMockInvitationRepo()
	svc := NewInvitationService(repo, 48*time.Hour, nil, nil)
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	inv, err := svc.Create(context.Background(), "comp-1", "admin-1", CreateInvitationRequest{
		Email: "engineer@example.com",
		Role:  models.RoleEngineer,
	})
	require.NoError(t, err)

	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Equal(t, "comp-1", inv.CompanyID)
	assert.Equal(t, "admin-1", inv.InvitedBy)
	assert.Equal(t, issuedAt.Add(48*time.Hour), inv.ExpiresAt)
	assert.NotEmpty(t, inv.Token)
	require.Len(t, repo.created, 1)

	// Tokens are unique per invitation.
	other, err := svc.Create(context.Background(), "comp-1", "admin-1", CreateInvitationRequest{
		Email: "pm@example.com",
		Role:  models.RolePM,
	})
	require.NoError(t, err)
	assert.NotEqual(t, inv.Token, other.Token)
}

func TestInvitationCreateValidation(t *testing.T) {
	svc := NewInvitationService(newMockInvitationRepo(), 0, nil, nil)

	cases := []struct {
		name string
		req  CreateInvitationRequest
	}{
		{"bad email", CreateInvitationRequest{Email: "nope", Role: models.RolePM}},
		{"superadmin not invitable", CreateInvitationRequest{Email: "a@b.com", Role: models.RoleSuperAdmin}},
		{"missing role", CreateInvitationRequest{Email: "a@b.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "comp-1", "admin-1", tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestInvitationRedeem(t *testing.T) {
	repo := newMockInvitationRepo()
	svc := NewInvitationService(repo, 24*time.Hour, nil, nil)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	inv, err := svc.Create(context.Background(), "comp-1", "admin-1", CreateInvitationRequest{
		Email: "cm@example.com",
		Role:  models.RoleCM,
	})
	require.NoError(t, err)

	redeemed, err := svc.Redeem(context.Background(), inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, redeemed.Status)
	require.NotNil(t, redeemed.AcceptedAt)
	assert.Equal(t, []string{inv.ID}, repo.accepted)
}

func TestInvitationRedeemAlreadyAccepted(t *testing.T) {
	repo := newMockInvitationRepo()
	svc := NewInvitationService(repo, 24*time.Hour, nil, nil)

	inv, err := svc.Create(context.Background(), "comp-1", "admin-1", CreateInvitationRequest{
		Email: "cm@example.com",
		Role:  models.RoleCM,
	})
	require.NoError(t, err)
	_, err = svc.Redeem(context.Background(), inv.Token)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), inv.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestInvitationRedeemLapsedMarksExpired(t *testing.T) {
	repo := newMockInvitationRepo()
	svc := NewInvitationService(repo, time.Hour, nil, nil)
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	inv, err := svc.Create(context.Background(), "comp-1", "admin-1", CreateInvitationRequest{
		Email: "late@example.com",
		Role:  models.RoleDirector,
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = svc.Redeem(context.Background(), inv.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInviteExpired.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{inv.ID}, repo.expired)
	assert.Empty(t, repo.accepted)
}

func TestInvitationRedeemUnknownToken(t *testing.T) {
	svc := NewInvitationService(newMockInvitationRepo(), time.Hour, nil, nil)

	_, err := svc.Redeem(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Redeem(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
