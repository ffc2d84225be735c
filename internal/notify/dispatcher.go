package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/adminhub/chat-notify-go/internal/model"
	"github.com/adminhub/chat-notify-go/internal/repository"
	"github.com/adminhub/chat-notify-go/internal/sse"
)

// Publisher is the fan-out surface the dispatcher delivers through.
type Publisher interface {
	Publish(ctx context.Context, identity string, event sse.Event) error
}

// BrokerDispatcher delivers notifications to one identity's SSE subscribers
// and, when an audit repository is wired, records each dispatch best-effort.
type BrokerDispatcher struct {
	broker   Publisher
	identity string
	audit    repository.NotificationRepository // nil disables the audit trail
}

func NewBrokerDispatcher(broker Publisher, identity string, audit repository.NotificationRepository) *BrokerDispatcher {
	return &BrokerDispatcher{
		broker:   broker,
		identity: identity,
		audit:    audit,
	}
}

func (d *BrokerDispatcher) Dispatch(ctx context.Context, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Str("notificationId", n.ID).Msg("failed to marshal notification")
		return
	}

	if err := d.broker.Publish(ctx, d.identity, sse.Event{Type: "notification", Data: data}); err != nil {
		log.Warn().Err(err).
			Str("notificationId", n.ID).
			Int64("chatSessionId", n.ChatSessionID).
			Msg("notification dispatch failed")
	}

	if d.audit == nil {
		return
	}
	if _, err := d.audit.Create(ctx, model.CreateNotificationParams{
		ID:            n.ID,
		Identity:      d.identity,
		ChatSessionID: n.ChatSessionID,
		MessageID:     n.MessageID,
		Title:         n.Title,
		Body:          n.Body,
	}); err != nil {
		log.Warn().Err(err).Str("notificationId", n.ID).Msg("failed to record notification audit row")
	}
}
