package entity

import "time"

// Notification is a queued notice to one user. Rows are written in the
// same transaction as the state change that caused them (outbox), then
// delivered best-effort after commit. Delivery failure never rolls back
// the transition; the row stays PENDING for out-of-band retry.
type Notification struct {
	ID           int64      `json:"id"`
	FromUserID   string     `json:"from_user_id"`
	ToUserID     string     `json:"to_user_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
