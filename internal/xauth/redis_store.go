package xauth

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces ephemeral PKCE entries in a cache shared with
// the airdrop store.
const redisKeyPrefix = "x:pkce:"

// RedisStateStore is a StateStore backed by a shared Redis cache, letting
// the verifier fallback survive process restarts and load-balanced
// deployments.
//
// Entries are CBOR-encoded and sealed before they leave the process: the
// verifier is secret material and the cache is shared infrastructure. The
// AAD binds each payload to its state token, so a sealed value moved to
// another key fails to open.
type RedisStateStore struct {
	client redis.UniversalClient
	sealer *Sealer
	ttl    time.Duration
}

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient, sealer *Sealer) *RedisStateStore {
	return &RedisStateStore{client: client, sealer: sealer, ttl: StateTTL}
}

// Put stores the sealed pair with the standard TTL; Redis expires abandoned
// entries server-side.
func (s *RedisStateStore) Put(ctx context.Context, state string, pair PKCEPair) error {
	payload, err := cbor.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode pkce entry: %w", err)
	}
	sealed, err := s.sealer.Seal(payload, []byte(state))
	if err != nil {
		return fmt.Errorf("seal pkce entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+state, sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist pkce entry: %w", err)
	}
	return nil
}

// Get loads and opens the pair for state. A missing key is not an error; a
// payload that fails to open is treated as absent rather than surfaced, so
// cache tampering degrades to a failed flow instead of leaking details.
func (s *RedisStateStore) Get(ctx context.Context, state string) (PKCEPair, bool, error) {
	sealed, err := s.client.Get(ctx, redisKeyPrefix+state).Result()
	if err != nil {
		if err == redis.Nil {
			return PKCEPair{}, false, nil
		}
		return PKCEPair{}, false, fmt.Errorf("load pkce entry: %w", err)
	}
	payload, err := s.sealer.Open(sealed, []byte(state))
	if err != nil {
		return PKCEPair{}, false, nil
	}
	var pair PKCEPair
	if err := cbor.Unmarshal(payload, &pair); err != nil {
		return PKCEPair{}, false, nil
	}
	return pair, true, nil
}

// Delete removes the entry. Deleting an absent key is a no-op.
func (s *RedisStateStore) Delete(ctx context.Context, state string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+state).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete pkce entry: %w", err)
	}
	return nil
}
