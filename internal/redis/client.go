package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// NotificationChannel is the pub/sub channel carrying notifications for one
// identity; every bridge replica subscribed to it fans the event out to its
// own SSE clients.
func NotificationChannel(identity string) string {
	return fmt.Sprintf("notifications:%s", identity)
}

// CapabilityKey is the set holding an identity's granted capabilities.
func CapabilityKey(identity string) string {
	return fmt.Sprintf("capabilities:%s", identity)
}
