package dto

import (
	"time"

	"github.com/paradisefm/facilities-api/internal/models"
)

// CreateRequestInput is the public intake payload. No authentication is
// required, so requester contact details travel in the body; when the caller
// is logged in the handler fills RequesterUserID from the token instead.
type CreateRequestInput struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Description      string  `json:"description" validate:"required"`
	LocationID       *string `json:"location_id,omitempty"`
	AssetID          *string `json:"asset_id,omitempty"`
	Priority         string  `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	RequesterName    string  `json:"requester_name" validate:"required,max=120"`
	RequesterEmail   string  `json:"requester_email" validate:"omitempty,email"`
	RequesterPhone   string  `json:"requester_phone" validate:"omitempty,max=40"`
	PreferredContact string  `json:"preferred_contact" validate:"omitempty,oneof=email phone"`
}

// UpdateRequestInput carries the staff triage form. Nil fields are left
// untouched; AssignedToID and DueDate use the Clear flags to distinguish
// "unchanged" from "unset".
type UpdateRequestInput struct {
	Status         *string    `json:"status,omitempty" validate:"omitempty,oneof=new triaged in_progress waiting completed closed"`
	Priority       *string    `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	LocationID     *string    `json:"location_id,omitempty"`
	AssetID        *string    `json:"asset_id,omitempty"`
	AssignedToID   *string    `json:"assigned_to_id,omitempty"`
	ClearAssignee  bool       `json:"clear_assignee,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ClearDueDate   bool       `json:"clear_due_date,omitempty"`
	EstimatedCost  *float64   `json:"estimated_cost,omitempty" validate:"omitempty,gte=0"`
	ActualCost     *float64   `json:"actual_cost,omitempty" validate:"omitempty,gte=0"`
	Vendor         *string    `json:"vendor,omitempty" validate:"omitempty,max=120"`
	QuoteAmount    *float64   `json:"quote_amount,omitempty" validate:"omitempty,gte=0"`
	QuoteStatus    *string    `json:"quote_status,omitempty" validate:"omitempty,oneof=none requested received approved"`
	PONumber       *string    `json:"po_number,omitempty" validate:"omitempty,max=60"`
}

// UpdateDescriptionInput is the focused description edit.
type UpdateDescriptionInput struct {
	Description string `json:"description" validate:"required"`
}

// UpdateResolutionInput is the focused resolution edit.
type UpdateResolutionInput struct {
	ResolutionSummary string `json:"resolution_summary" validate:"required"`
}

// AddWorkLogInput appends a note or time entry to the activity trail.
type AddWorkLogInput struct {
	Note         string `json:"note" validate:"required_without=MinutesSpent"`
	MinutesSpent *int   `json:"minutes_spent,omitempty" validate:"omitempty,gt=0"`
}

// RequestDetail bundles a request with its trail and files.
type RequestDetail struct {
	Request     models.RepairRequest `json:"request"`
	WorkLogs    []models.WorkLog     `json:"work_logs"`
	Attachments []AttachmentView     `json:"attachments"`
}

// AttachmentView is attachment metadata plus a time-limited download URL.
type AttachmentView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	Kind         string    `json:"kind"`
	URL          string    `json:"url"`
	UploadedByID *string   `json:"uploaded_by_id,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Dashboard is the staff triage landing payload.
type Dashboard struct {
	Counts       models.RequestStatusCounts `json:"counts"`
	OpenRequests []models.RepairRequest     `json:"open_requests"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}
