package models

import "time"

// WorkLogType classifies an activity-trail entry.
type WorkLogType string

const (
	WorkLogCreated      WorkLogType = "created"
	WorkLogNote         WorkLogType = "note"
	WorkLogStatusChange WorkLogType = "status_change"
	WorkLogAssignment   WorkLogType = "assignment"
	WorkLogTimeSpent    WorkLogType = "time_spent"
)

// WorkLog is an append-only audit entry on a repair request. Entries are
// never edited or deleted through normal flow.
type WorkLog struct {
	ID           string      `db:"id" json:"id"`
	RequestID    string      `db:"request_id" json:"request_id"`
	AuthorID     *string     `db:"author_id" json:"author_id,omitempty"`
	EntryType    WorkLogType `db:"entry_type" json:"entry_type"`
	Note         string      `db:"note" json:"note"`
	MinutesSpent *int        `db:"minutes_spent" json:"minutes_spent,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}
