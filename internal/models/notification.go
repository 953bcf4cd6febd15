package models

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationMention      NotificationType = "mention"
	NotificationAssignment   NotificationType = "assignment"
	NotificationStatusChange NotificationType = "status_change"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"notification_type" json:"notification_type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	RequestID *string          `db:"request_id" json:"request_id,omitempty"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
