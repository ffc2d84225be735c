package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/adminhub/chat-notify-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second

	clientBufferSize = 100
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	Identity string
	Events   chan Event
	Done     chan struct{}
}

// Broker fans events out to SSE clients grouped by identity. With a redis
// client, Publish goes through pub/sub so every bridge replica delivers to
// its own subscribers; without one, delivery stays in-process.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // identity -> set of clients
	pumps   map[string]context.CancelFunc
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		pumps:   make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(identity string) *Client {
	client := &Client{
		Identity: identity,
		Events:   make(chan Event, clientBufferSize),
		Done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[identity] == nil {
		b.clients[identity] = make(map[*Client]bool)
		if b.redis != nil {
			// one pump per identity; cancelled when the last client leaves
			pumpCtx, cancelPump := context.WithCancel(b.ctx)
			b.pumps[identity] = cancelPump
			go b.subscribeToRedis(pumpCtx, identity)
		}
	}
	b.clients[identity][client] = true
	clientCount := len(b.clients[identity])
	b.mu.Unlock()

	log.Info().
		Str("identity", identity).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.Identity]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.Identity)
			if cancelPump, ok := b.pumps[client.Identity]; ok {
				cancelPump()
				delete(b.pumps, client.Identity)
			}
		}

		log.Info().
			Str("identity", client.Identity).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, identity string, event Event) error {
	if b.redis == nil {
		b.broadcast(identity, event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.NotificationChannel(identity)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, identity string) {
	channel := redisclient.NotificationChannel(identity)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("identity", identity).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(identity, event)
		}
	}
}

func (b *Broker) broadcast(identity string, event Event) {
	b.mu.RLock()
	clients := b.clients[identity]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("identity", identity).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.pumps = make(map[string]context.CancelFunc)
}

func (b *Broker) ClientCount(identity string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[identity])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
