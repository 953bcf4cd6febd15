package models

import "time"

// Location is a physical place in the facility. Locations form a tree via
// ParentID; the service layer refuses cycles.
type Location struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LocationDependents counts the records that block deletion of a location.
type LocationDependents struct {
	Children int `db:"children" json:"children"`
	Assets   int `db:"assets" json:"assets"`
	Requests int `db:"requests" json:"requests"`
}

// Blocked reports whether any dependent class prevents deletion.
func (d LocationDependents) Blocked() bool {
	return d.Children > 0 || d.Assets > 0 || d.Requests > 0
}
