package models

import (
	"path"
	"time"
)

// Attachment is an uploaded file bound to a repair request. StoredPath is
// relative to the content store root; OriginalName keeps the upload's
// filename for display.
type Attachment struct {
	ID           string    `db:"id" json:"id"`
	RequestID    string    `db:"request_id" json:"request_id"`
	StoredPath   string    `db:"stored_path" json:"-"`
	OriginalName string    `db:"original_name" json:"original_name"`
	Title        string    `db:"title" json:"title"`
	UploadedByID *string   `db:"uploaded_by_id" json:"uploaded_by_id,omitempty"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// DisplayName returns the title when set, otherwise the original filename.
func (a Attachment) DisplayName() string {
	if a.Title != "" {
		return a.Title
	}
	return path.Base(a.OriginalName)
}
