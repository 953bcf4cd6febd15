package dto

import (
	"time"

	"github.com/paradisefm/facilities-api/internal/models"
)

// LocationInput creates or updates a location.
type LocationInput struct {
	Name     string  `json:"name" validate:"required,max=120"`
	ParentID *string `json:"parent_id,omitempty"`
	Notes    string  `json:"notes" validate:"omitempty,max=2000"`
}

// LocationView is a location with its computed full path.
type LocationView struct {
	models.Location
	Path string `json:"path"`
}

// LocationDetail adds children and assets for the detail page.
type LocationDetail struct {
	LocationView
	Children []LocationView `json:"children"`
	Assets   []models.Asset `json:"assets"`
}

// CategoryInput creates or updates a category.
type CategoryInput struct {
	Name      string `json:"name" validate:"required,max=80"`
	Icon      string `json:"icon" validate:"omitempty,max=40"`
	TagPrefix string `json:"tag_prefix" validate:"omitempty,max=10,uppercase"`
	SortOrder int    `json:"sort_order"`
}

// AssetInput creates or updates an asset. An empty Tag on create triggers
// generation from the category prefix.
type AssetInput struct {
	Tag                string     `json:"asset_tag" validate:"omitempty,max=40"`
	Name               string     `json:"name" validate:"required,max=160"`
	CategoryID         string     `json:"category_id" validate:"required"`
	LocationID         *string    `json:"location_id,omitempty"`
	Manufacturer       string     `json:"manufacturer" validate:"omitempty,max=120"`
	Model              string     `json:"model" validate:"omitempty,max=120"`
	SerialNumber       string     `json:"serial_number" validate:"omitempty,max=120"`
	InstallDate        *time.Time `json:"install_date,omitempty"`
	WarrantyEndDate    *time.Time `json:"warranty_end_date,omitempty"`
	Status             string     `json:"status" validate:"omitempty,oneof=operational attention out_of_service disposed"`
	Criticality        string     `json:"criticality" validate:"omitempty,oneof=low medium high"`
	IsMonument         bool       `json:"is_monument"`
	ReplacementPlanned *time.Time `json:"replacement_planned,omitempty"`
	ReplacementNotes   string     `json:"replacement_notes" validate:"omitempty,max=2000"`
	Description        string     `json:"description" validate:"omitempty,max=4000"`
}

// AssetDetail bundles an asset with its schedules and recent requests.
type AssetDetail struct {
	Asset          models.Asset           `json:"asset"`
	Schedules      []ScheduleView         `json:"schedules"`
	RecentRequests []models.RepairRequest `json:"recent_requests"`
}

// ScheduleInput creates or updates a maintenance schedule.
type ScheduleInput struct {
	Name          string     `json:"name" validate:"required,max=160"`
	IntervalDays  int        `json:"interval_days" validate:"required,gt=0"`
	LastPerformed *time.Time `json:"last_performed,omitempty"`
	Notes         string     `json:"notes" validate:"omitempty,max=4000"`
}

// ScheduleView is a schedule with its derived due information.
type ScheduleView struct {
	models.MaintenanceSchedule
	NextDue   time.Time `json:"next_due"`
	DaysUntil int       `json:"days_until"`
	Due       bool      `json:"due"`
}

// PerformInput records a maintenance completion. PerformedOn defaults to
// today when absent.
type PerformInput struct {
	PerformedOn *time.Time `json:"performed_on,omitempty"`
}
