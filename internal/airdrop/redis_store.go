package airdrop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces documents in a cache shared with the auth flow's
// ephemeral state store.
const keyPrefix = "wendrops:doc:"

// RedisStore is the shared-cache Store backend. Documents are stored
// verbatim with no TTL; the catalog and leaderboard are durable data, not
// cache entries.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore constructs a Redis-backed document store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load document %s: %w", key, err)
	}
	return json.RawMessage(data), true, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, doc json.RawMessage) error {
	if err := s.client.Set(ctx, keyPrefix+key, []byte(doc), 0).Err(); err != nil {
		return fmt.Errorf("persist document %s: %w", key, err)
	}
	return nil
}
