package model

import "time"

// NotificationRecord is the audit-trail row written for every dispatched
// notification. The reports surface reads these; the live path never does.
type NotificationRecord struct {
	ID            string    `db:"id" json:"id"`
	Identity      string    `db:"identity" json:"identity"`
	ChatSessionID int64     `db:"chat_session_id" json:"chatSessionId"`
	MessageID     int64     `db:"message_id" json:"messageId"`
	Title         string    `db:"title" json:"title"`
	Body          string    `db:"body" json:"body"`
	DispatchedAt  time.Time `db:"dispatched_at" json:"dispatchedAt"`
}

type CreateNotificationParams struct {
	ID            string
	Identity      string
	ChatSessionID int64
	MessageID     int64
	Title         string
	Body          string
}
