// Package airdrop persists the product's airdrop catalog and points
// leaderboard as JSON documents behind a dual-backing store: a shared Redis
// cache in production or a local JSON file for single-node deployments.
package airdrop

import (
	"context"
	"encoding/json"
)

// Document keys. The documents are opaque to the server; the frontend owns
// their shape.
const (
	KeyAirdrops    = "airdrops"
	KeyLeaderboard = "leaderboard"
)

// Store reads and writes the two JSON documents. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the document for key, or ok=false when it has never been
	// written.
	Get(ctx context.Context, key string) (doc json.RawMessage, ok bool, err error)
	// Put replaces the document for key.
	Put(ctx context.Context, key string, doc json.RawMessage) error
}
