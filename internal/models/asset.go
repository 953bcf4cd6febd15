package models

import "time"

// AssetStatus is the operational state of a piece of equipment.
type AssetStatus string

const (
	AssetOperational  AssetStatus = "operational"
	AssetAttention    AssetStatus = "attention"
	AssetOutOfService AssetStatus = "out_of_service"
	AssetDisposed     AssetStatus = "disposed"
)

// Plannable reports whether maintenance for the asset should appear in
// planner projections. Disposed and out-of-service assets are excluded.
func (s AssetStatus) Plannable() bool {
	return s == AssetOperational || s == AssetAttention
}

// AssetCriticality rates business impact, independent of status.
type AssetCriticality string

const (
	CriticalityLow    AssetCriticality = "low"
	CriticalityMedium AssetCriticality = "medium"
	CriticalityHigh   AssetCriticality = "high"
)

// Asset is a tracked piece of equipment or installation.
type Asset struct {
	ID                 string           `db:"id" json:"id"`
	Tag                string           `db:"asset_tag" json:"asset_tag"`
	Name               string           `db:"name" json:"name"`
	CategoryID         string           `db:"category_id" json:"category_id"`
	LocationID         *string          `db:"location_id" json:"location_id,omitempty"`
	Manufacturer       string           `db:"manufacturer" json:"manufacturer"`
	Model              string           `db:"model" json:"model"`
	SerialNumber       string           `db:"serial_number" json:"serial_number"`
	InstallDate        *time.Time       `db:"install_date" json:"install_date,omitempty"`
	WarrantyEndDate    *time.Time       `db:"warranty_end_date" json:"warranty_end_date,omitempty"`
	Status             AssetStatus      `db:"status" json:"status"`
	Criticality        AssetCriticality `db:"criticality" json:"criticality"`
	IsMonument         bool             `db:"is_monument" json:"is_monument"`
	ReplacementPlanned *time.Time       `db:"replacement_planned" json:"replacement_planned,omitempty"`
	ReplacementNotes   string           `db:"replacement_notes" json:"replacement_notes"`
	PhotoPath          *string          `db:"photo_path" json:"photo_path,omitempty"`
	Description        string           `db:"description" json:"description"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// AssetFilter narrows asset listings.
type AssetFilter struct {
	Status      *AssetStatus
	CategoryID  string
	Criticality *AssetCriticality
	LocationID  string
	Monument    *bool
	Search      string
	Page        int
	PageSize    int
}

// AssetSearchResult is the compact autocomplete shape.
type AssetSearchResult struct {
	ID         string  `db:"id" json:"id"`
	Tag        string  `db:"asset_tag" json:"asset_tag"`
	Name       string  `db:"name" json:"name"`
	LocationID *string `db:"location_id" json:"location_id,omitempty"`
}
