package models

import "time"

// InvitationStatus is the lifecycle state of a user invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation lets an admin provision a user account ahead of time.
// Accepting a pending, unexpired invitation registers the user with the
// invited role and company.
type Invitation struct {
	ID         string           `db:"id" json:"id"`
	CompanyID  string           `db:"company_id" json:"company_id"`
	Email      string           `db:"email" json:"email"`
	Role       UserRole         `db:"role" json:"role"`
	Token      string           `db:"token" json:"-"`
	Status     InvitationStatus `db:"status" json:"status"`
	InvitedBy  string           `db:"invited_by" json:"invited_by"`
	ExpiresAt  time.Time        `db:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}
