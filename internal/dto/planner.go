package dto

import "time"

// PlannerEntryKind distinguishes the two sources of a planner cell entry.
type PlannerEntryKind string

const (
	PlannerEntryRequest     PlannerEntryKind = "request"
	PlannerEntryMaintenance PlannerEntryKind = "maintenance"
)

// PlannerEntry is one dot on the calendar: either an open request due that
// day or a projected maintenance occurrence.
type PlannerEntry struct {
	Kind       PlannerEntryKind `json:"kind"`
	Date       time.Time        `json:"date"`
	Title      string           `json:"title"`
	RequestID  string           `json:"request_id,omitempty"`
	Number     int64            `json:"number,omitempty"`
	Priority   string           `json:"priority,omitempty"`
	Status     string           `json:"status,omitempty"`
	ScheduleID string           `json:"schedule_id,omitempty"`
	AssetID    string           `json:"asset_id,omitempty"`
	AssetTag   string           `json:"asset_tag,omitempty"`
	AssetName  string           `json:"asset_name,omitempty"`
	Overdue    bool             `json:"overdue,omitempty"`
}

// PlannerDay is one calendar cell.
type PlannerDay struct {
	Date       time.Time      `json:"date"`
	InMonth    bool           `json:"in_month"`
	Today      bool           `json:"today"`
	Entries    []PlannerEntry `json:"entries"`
}

// PlannerResponse is the calendar payload for every view. Month view fills
// Weeks with Monday-first rows; week and day views fill Days; list view
// fills Entries ordered by date.
type PlannerResponse struct {
	View    string         `json:"view"`
	Year    int            `json:"year"`
	Month   int            `json:"month,omitempty"`
	Week    int            `json:"week,omitempty"`
	Weeks   [][]PlannerDay `json:"weeks,omitempty"`
	Days    []PlannerDay   `json:"days,omitempty"`
	Entries []PlannerEntry `json:"entries,omitempty"`
}
