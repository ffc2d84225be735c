package model

import (
	"fmt"
	"time"
)

type ChatSession struct {
	ID         int64         `json:"id"`
	CustomerID *int64        `json:"customer_id,omitempty"`
	GuestName  string        `json:"guest_name"`
	Status     SessionStatus `json:"status"`
	SessionKey string        `json:"session_key"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	DeletedAt  *time.Time    `json:"deleted_at,omitempty"`
}

// SynthesizeSessionKey derives the correlation key for sessions that arrive
// without a backend-assigned one.
func SynthesizeSessionKey(id int64) string {
	return fmt.Sprintf("session_%d", id)
}

// Normalize fills in fields the backend may omit on incremental events.
func (s *ChatSession) Normalize() {
	if s.SessionKey == "" {
		s.SessionKey = SynthesizeSessionKey(s.ID)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}
