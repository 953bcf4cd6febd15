package models

import "time"

// MaintenanceSchedule is a recurring task definition for one asset.
type MaintenanceSchedule struct {
	ID            string     `db:"id" json:"id"`
	AssetID       string     `db:"asset_id" json:"asset_id"`
	Name          string     `db:"name" json:"name"`
	IntervalDays  int        `db:"interval_days" json:"interval_days"`
	LastPerformed *time.Time `db:"last_performed" json:"last_performed,omitempty"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NextDue returns the next due date: last performed plus the interval, or
// today when the task has never been performed.
func (s MaintenanceSchedule) NextDue(today time.Time) time.Time {
	today = Midnight(today)
	if s.LastPerformed == nil {
		return today
	}
	return Midnight(*s.LastPerformed).AddDate(0, 0, s.IntervalDays)
}

// IsDue reports whether the schedule is due on or before the given day.
func (s MaintenanceSchedule) IsDue(today time.Time) bool {
	return !s.NextDue(today).After(Midnight(today))
}

// DaysUntil returns the signed number of days until the next due date;
// negative when overdue.
func (s MaintenanceSchedule) DaysUntil(today time.Time) int {
	diff := s.NextDue(today).Sub(Midnight(today))
	return int(diff.Hours() / 24)
}

// ScheduleWithAsset joins a schedule with the asset fields planner views need.
type ScheduleWithAsset struct {
	MaintenanceSchedule
	AssetTag    string      `db:"asset_tag" json:"asset_tag"`
	AssetName   string      `db:"asset_name" json:"asset_name"`
	AssetStatus AssetStatus `db:"asset_status" json:"asset_status"`
	LocationID  *string     `db:"location_id" json:"location_id,omitempty"`
}

// Midnight truncates a timestamp to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
