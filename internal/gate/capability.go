package gate

import (
	"context"

	redisclient "github.com/adminhub/chat-notify-go/internal/redis"
)

// StaticStore serves capability grants parsed from configuration.
type StaticStore struct {
	grants map[string][]string
}

func NewStaticStore(grants map[string][]string) *StaticStore {
	return &StaticStore{grants: grants}
}

func (s *StaticStore) Has(ctx context.Context, identity, capability string) (bool, error) {
	for _, granted := range s.grants[identity] {
		if granted == capability {
			return true, nil
		}
	}
	return false, nil
}

// RedisStore looks grants up in a redis set per identity, with a fallback
// store consulted when the set holds nothing for the identity. This lets an
// operator grant or revoke at runtime without redeploying.
type RedisStore struct {
	client   *redisclient.Client
	fallback CapabilityStore
}

func NewRedisStore(client *redisclient.Client, fallback CapabilityStore) *RedisStore {
	return &RedisStore{client: client, fallback: fallback}
}

func (s *RedisStore) Has(ctx context.Context, identity, capability string) (bool, error) {
	key := redisclient.CapabilityKey(identity)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		if s.fallback != nil {
			return s.fallback.Has(ctx, identity, capability)
		}
		return false, nil
	}

	return s.client.SIsMember(ctx, key, capability).Result()
}
