package model

import "time"

const (
	NotificationInfo    = "info"
	NotificationAlert   = "alert"
	NotificationSuccess = "success"
)

// Notification is a message shown to one customer, or to everyone when
// UserID is nil (broadcast). Only the Read flag ever changes after creation.
type Notification struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Read      bool      `json:"read"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
