package xauth

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedisStore(t *testing.T) (*RedisStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sealer, err := NewSealer("k1", map[string][]byte{"k1": bytes.Repeat([]byte{9}, SealerKeySize)})
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return NewRedisStateStore(client, sealer), mr
}

func TestRedisStateStoreRoundtrip(t *testing.T) {
	s, _ := testRedisStore(t)
	ctx := context.Background()
	pair := PKCEPair{Verifier: "v1", Challenge: "c1"}

	if err := s.Put(ctx, "state1", pair); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "state1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != pair {
		t.Errorf("got %+v, want %+v", got, pair)
	}

	if err := s.Delete(ctx, "state1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "state1"); ok {
		t.Error("entry should be gone after Delete")
	}
}

func TestRedisStateStoreSealedAtRest(t *testing.T) {
	s, mr := testRedisStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state1", PKCEPair{Verifier: "raw-verifier"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, err := mr.Get(redisKeyPrefix + "state1")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	if strings.Contains(raw, "raw-verifier") {
		t.Error("verifier must not be stored in the clear")
	}
	if !strings.HasPrefix(raw, "k1.") {
		t.Errorf("payload %q missing key label", raw)
	}
}

func TestRedisStateStoreExpiry(t *testing.T) {
	s, mr := testRedisStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state1", PKCEPair{Verifier: "v1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	mr.FastForward(StateTTL + time.Minute)
	if _, ok, _ := s.Get(ctx, "state1"); ok {
		t.Error("abandoned entry must be unreachable after the expiry window")
	}
}

func TestRedisStateStorePayloadNotPortable(t *testing.T) {
	s, mr := testRedisStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state1", PKCEPair{Verifier: "v1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Copy the sealed entry under a different state: the AAD binding makes
	// it unusable there.
	raw, err := mr.Get(redisKeyPrefix + "state1")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	mr.Set(redisKeyPrefix+"state2", raw)
	if _, ok, _ := s.Get(ctx, "state2"); ok {
		t.Error("a sealed entry moved to another state must not open")
	}
}
