package model

import (
	"encoding/json"
	"time"
)

// Event names on the chat backend socket.
const (
	EventAllSessions    = "all_sessions"
	EventNewSession     = "new_session"
	EventNewMessage     = "new_message"
	EventGetAllSessions = "get_all_sessions"
)

// Envelope is the wire format for every event on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewSessionEvent is the incremental session payload. The backend sends it in
// camelCase, unlike the snake_case bulk snapshot.
type NewSessionEvent struct {
	SessionID  int64         `json:"sessionId"`
	CustomerID *int64        `json:"customerId,omitempty"`
	GuestName  string        `json:"guestName"`
	Status     SessionStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// ToSession converts the event payload to a ChatSession, synthesizing the
// fields the incremental event does not carry.
func (e NewSessionEvent) ToSession() ChatSession {
	s := ChatSession{
		ID:         e.SessionID,
		CustomerID: e.CustomerID,
		GuestName:  e.GuestName,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
	}
	s.Normalize()
	return s
}

// ConnectionState is the only surface the bridge exposes outward.
type ConnectionState struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}
