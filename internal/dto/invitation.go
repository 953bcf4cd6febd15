package dto

import (
	"time"

	"github.com/paradisefm/facilities-api/internal/models"
)

// CreateInvitationInput issues an onboarding invitation.
type CreateInvitationInput struct {
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"omitempty,oneof=ADMIN STAFF USER"`
	Message string `json:"message" validate:"omitempty,max=2000"`
}

// AcceptInvitationInput redeems an invitation token into an account.
type AcceptInvitationInput struct {
	Username        string `json:"username" validate:"required,min=3,max=40"`
	FirstName       string `json:"first_name" validate:"omitempty,max=60"`
	LastName        string `json:"last_name" validate:"omitempty,max=60"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// InvitationView is an invitation with its computed expiry.
type InvitationView struct {
	models.Invitation
	ExpiresAt time.Time `json:"expires_at"`
}
