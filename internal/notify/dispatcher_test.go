package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminhub/chat-notify-go/internal/model"
	"github.com/adminhub/chat-notify-go/internal/sse"
)

type capturingPublisher struct {
	events []sse.Event
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, identity string, event sse.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type capturingAudit struct {
	created []model.CreateNotificationParams
	err     error
}

func (a *capturingAudit) Create(ctx context.Context, params model.CreateNotificationParams) (*model.NotificationRecord, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.created = append(a.created, params)
	return &model.NotificationRecord{ID: params.ID}, nil
}

func (a *capturingAudit) FindByID(ctx context.Context, id string) (*model.NotificationRecord, error) {
	return nil, nil
}

func (a *capturingAudit) FindRecentByIdentity(ctx context.Context, identity string, limit, offset int) ([]model.NotificationRecord, error) {
	return nil, nil
}

func (a *capturingAudit) CountByIdentity(ctx context.Context, identity string) (int, error) {
	return 0, nil
}

func (a *capturingAudit) CountByIdentitySince(ctx context.Context, identity string, since time.Time) (int, error) {
	return 0, nil
}

func (a *capturingAudit) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestFromMessage(t *testing.T) {
	senderID := int64(8)
	msg := model.ChatMessage{
		ID:            41,
		ChatSessionID: 5,
		SenderType:    model.SenderTypeCustomer,
		SenderID:      &senderID,
		Message:       "hello, is anyone there?",
	}

	n := FromMessage(msg)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, Title, n.Title)
	assert.Equal(t, "hello, is anyone there?", n.Body)
	assert.Equal(t, VisibleDuration, n.Duration)
	assert.Equal(t, LiveChatPath, n.ActionPath)
	assert.Equal(t, int64(5), n.ChatSessionID)
	assert.Equal(t, int64(41), n.MessageID)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestBrokerDispatcher(t *testing.T) {
	t.Run("publishes one notification event", func(t *testing.T) {
		pub := &capturingPublisher{}
		d := NewBrokerDispatcher(pub, "admin", nil)

		d.Dispatch(context.Background(), FromMessage(model.ChatMessage{ID: 1, ChatSessionID: 2, Message: "hi"}))

		require.Len(t, pub.events, 1)
		assert.Equal(t, "notification", pub.events[0].Type)

		var got Notification
		require.NoError(t, json.Unmarshal(pub.events[0].Data, &got))
		assert.Equal(t, "hi", got.Body)
		assert.Equal(t, LiveChatPath, got.ActionPath)
	})

	t.Run("publish failure is swallowed", func(t *testing.T) {
		pub := &capturingPublisher{err: errors.New("broker down")}
		d := NewBrokerDispatcher(pub, "admin", nil)

		assert.NotPanics(t, func() {
			d.Dispatch(context.Background(), FromMessage(model.ChatMessage{ID: 1, Message: "hi"}))
		})
	})

	t.Run("records an audit row when wired", func(t *testing.T) {
		pub := &capturingPublisher{}
		audit := &capturingAudit{}
		d := NewBrokerDispatcher(pub, "admin", audit)

		d.Dispatch(context.Background(), FromMessage(model.ChatMessage{ID: 9, ChatSessionID: 3, Message: "hi"}))

		require.Len(t, audit.created, 1)
		assert.Equal(t, "admin", audit.created[0].Identity)
		assert.Equal(t, int64(3), audit.created[0].ChatSessionID)
		assert.Equal(t, int64(9), audit.created[0].MessageID)
	})

	t.Run("audit failure does not block delivery", func(t *testing.T) {
		pub := &capturingPublisher{}
		audit := &capturingAudit{err: errors.New("db down")}
		d := NewBrokerDispatcher(pub, "admin", audit)

		d.Dispatch(context.Background(), FromMessage(model.ChatMessage{ID: 1, Message: "hi"}))

		assert.Len(t, pub.events, 1)
	})
}
