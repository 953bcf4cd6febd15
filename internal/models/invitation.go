package models

import "time"

// InvitationStatus is the onboarding token state.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// Invitation grants one email address the right to create an account. A
// pending invitation stays valid for a fixed window from creation and is
// lazily marked expired on first access past that window.
type Invitation struct {
	ID             string           `db:"id" json:"id"`
	Email          string           `db:"email" json:"email"`
	Token          string           `db:"token" json:"token"`
	Status         InvitationStatus `db:"status" json:"status"`
	Role           UserRole         `db:"role" json:"role"`
	Message        string           `db:"message" json:"message"`
	InvitedByID    *string          `db:"invited_by_id" json:"invited_by_id,omitempty"`
	AcceptedUserID *string          `db:"accepted_user_id" json:"accepted_user_id,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	AcceptedAt     *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
}

// ExpiresAt returns the end of the validity window.
func (i Invitation) ExpiresAt(validFor time.Duration) time.Time {
	return i.CreatedAt.Add(validFor)
}

// IsValid reports whether the invitation can still be accepted at the given
// moment.
func (i Invitation) IsValid(now time.Time, validFor time.Duration) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt(validFor))
}
