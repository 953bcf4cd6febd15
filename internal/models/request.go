package models

import "time"

// RequestPriority orders repair requests for triage.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// RequestStatus is the lifecycle state of a work order. Staff may move a
// request to any state; there is no enforced transition table.
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusTriaged    RequestStatus = "triaged"
	StatusInProgress RequestStatus = "in_progress"
	StatusWaiting    RequestStatus = "waiting"
	StatusCompleted  RequestStatus = "completed"
	StatusClosed     RequestStatus = "closed"
)

// Open reports whether the request still needs work.
func (s RequestStatus) Open() bool {
	return s != StatusCompleted && s != StatusClosed
}

// StatusLabels maps states to the human labels used in work-log entries.
var StatusLabels = map[RequestStatus]string{
	StatusNew:        "Nieuw",
	StatusTriaged:    "Getriageerd",
	StatusInProgress: "Bezig",
	StatusWaiting:    "Wacht",
	StatusCompleted:  "Gereed",
	StatusClosed:     "Gesloten",
}

// ContactMethod is the requester's preferred channel.
type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
)

// QuoteStatus tracks vendor quote procurement.
type QuoteStatus string

const (
	QuoteNone      QuoteStatus = "none"
	QuoteRequested QuoteStatus = "requested"
	QuoteReceived  QuoteStatus = "received"
	QuoteApproved  QuoteStatus = "approved"
)

// RepairRequest is a work order describing a problem or task tied to a
// location and optionally an asset.
type RepairRequest struct {
	ID          string          `db:"id" json:"id"`
	Number      int64           `db:"number" json:"number"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	LocationID  *string         `db:"location_id" json:"location_id,omitempty"`
	AssetID     *string         `db:"asset_id" json:"asset_id,omitempty"`
	Priority    RequestPriority `db:"priority" json:"priority"`
	Status      RequestStatus   `db:"status" json:"status"`

	RequesterName    string        `db:"requester_name" json:"requester_name"`
	RequesterEmail   string        `db:"requester_email" json:"requester_email"`
	RequesterPhone   string        `db:"requester_phone" json:"requester_phone"`
	PreferredContact ContactMethod `db:"preferred_contact" json:"preferred_contact"`
	RequesterUserID  *string       `db:"requester_user_id" json:"requester_user_id,omitempty"`

	AssignedToID *string    `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	TriagedByID  *string    `db:"triaged_by_id" json:"triaged_by_id,omitempty"`
	DueDate      *time.Time `db:"due_date" json:"due_date,omitempty"`

	ResolutionSummary string   `db:"resolution_summary" json:"resolution_summary"`
	EstimatedCost     *float64 `db:"estimated_cost" json:"estimated_cost,omitempty"`
	ActualCost        *float64 `db:"actual_cost" json:"actual_cost,omitempty"`

	Vendor      string      `db:"vendor" json:"vendor"`
	QuoteAmount *float64    `db:"quote_amount" json:"quote_amount,omitempty"`
	QuoteStatus QuoteStatus `db:"quote_status" json:"quote_status"`
	PONumber    string      `db:"po_number" json:"po_number"`

	ClosedAt *time.Time `db:"closed_at" json:"closed_at,omitempty"`

	IsDeleted   bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedByID *string    `db:"deleted_by_id" json:"deleted_by_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether an open request has passed its due date.
func (r RepairRequest) IsOverdue(today time.Time) bool {
	if r.DueDate == nil || !r.Status.Open() {
		return false
	}
	return r.DueDate.Before(Midnight(today))
}

// RequestFilter narrows request listings. Assigned accepts a user id or the
// sentinel "unassigned".
type RequestFilter struct {
	Status         *RequestStatus
	Priority       *RequestPriority
	LocationID     string
	Assigned       string
	Search         string
	IncludeDeleted bool

	// Visibility restriction for non-staff callers: only rows where the
	// requester account or email matches.
	RequesterUserID string
	RequesterEmail  string

	Page     int
	PageSize int
}

// RequestStatusCounts backs the triage dashboard header.
type RequestStatusCounts struct {
	New        int `db:"new" json:"new"`
	Triaged    int `db:"triaged" json:"triaged"`
	InProgress int `db:"in_progress" json:"in_progress"`
	Waiting    int `db:"waiting" json:"waiting"`
	Overdue    int `db:"overdue" json:"overdue"`
}
