// Package notify turns inbound chat messages into user-facing notifications.
// Dispatch is fire-and-forget: a notification that cannot be delivered is
// logged and dropped, never surfaced to the connection.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adminhub/chat-notify-go/internal/model"
)

const (
	// Headline shown on every chat notification.
	Title = "New chat message"

	// How long the notification stays visible.
	VisibleDuration = 10 * time.Second

	// Where the notification's action takes the user.
	LiveChatPath = "/live-chat"
)

type Notification struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Body          string        `json:"body"`
	Duration      time.Duration `json:"duration"`
	ActionPath    string        `json:"actionPath"`
	ChatSessionID int64         `json:"chatSessionId"`
	MessageID     int64         `json:"messageId"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// FromMessage builds the notification for one inbound message. The message is
// self-sufficient: no session lookup happens here, because the session and
// message streams carry no ordering guarantee relative to each other.
func FromMessage(msg model.ChatMessage) Notification {
	return Notification{
		ID:            uuid.NewString(),
		Title:         Title,
		Body:          msg.Message,
		Duration:      VisibleDuration,
		ActionPath:    LiveChatPath,
		ChatSessionID: msg.ChatSessionID,
		MessageID:     msg.ID,
		CreatedAt:     time.Now().UTC(),
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}
