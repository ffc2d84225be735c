package model

import "time"

// ChatMessage is transient: it exists only as an inbound event payload and is
// turned directly into a notification, never stored.
type ChatMessage struct {
	ID            int64      `json:"id"`
	ChatSessionID int64      `json:"chat_session_id"`
	SenderType    SenderType `json:"sender_type"`
	SenderID      *int64     `json:"sender_id,omitempty"`
	Message       string     `json:"message"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
