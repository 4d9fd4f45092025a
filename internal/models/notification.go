package models

import "time"

// NotificationMessage is the payload placed on the notification queue.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`

	// ItemID links the message to an item in the notification ledger. It is
	// not part of the queue payload.
	ItemID *int64 `json:"-"`
}

// NotificationStatus is the dispatch outcome recorded for a message.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "Pending"
	NotificationStatusSent    NotificationStatus = "Sent"
	NotificationStatusFailed  NotificationStatus = "Failed"
	NotificationStatusSkipped NotificationStatus = "Skipped"
)

// NotificationRecord tracks one message through dispatch and delivery.
type NotificationRecord struct {
	ID             string             `db:"id" json:"id"`
	ItemID         *int64             `db:"item_id" json:"itemId,omitempty"`
	RecipientEmail string             `db:"recipient_email" json:"recipientEmail"`
	Subject        string             `db:"subject" json:"subject"`
	Body           string             `db:"body" json:"-"`
	Status         NotificationStatus `db:"status" json:"status"`
	Transport      string             `db:"transport" json:"transport"`
	LastError      *string            `db:"last_error" json:"lastError,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"timestamp"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`
}

// NotificationStats tallies records by status.
type NotificationStats struct {
	Queued  int `db:"queued" json:"queued"`
	Sent    int `db:"sent" json:"sent"`
	Failed  int `db:"failed" json:"failed"`
	Skipped int `db:"skipped" json:"skipped"`
}
