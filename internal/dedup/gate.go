// Package dedup suppresses rapid duplicate submissions of the same logical
// event. Suppression is best-effort and, with the memory store, scoped to a
// single process; it exists to absorb browser double-submits, not to provide
// exactly-once delivery.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Store records event acceptances. Claim returns true when the key has not
// been accepted within the window; implementations must also evict entries
// older than the retention period to bound memory growth.
type Store interface {
	Claim(ctx context.Context, key string, window, retention time.Duration) (bool, error)
}

// Gate is the deduplication gate placed in front of the forwarder.
type Gate struct {
	store     Store
	window    time.Duration
	retention time.Duration
}

// NewGate creates a gate. Window is the suppression span; retention is how
// long acceptances are kept before eviction.
func NewGate(store Store, window, retention time.Duration) *Gate {
	return &Gate{
		store:     store,
		window:    window,
		retention: retention,
	}
}

// Claim attempts to accept an event key. A false result means a prior
// acceptance exists within the window and the event must not be forwarded.
func (g *Gate) Claim(ctx context.Context, key string) (bool, error) {
	return g.store.Claim(ctx, key, g.window, g.retention)
}

// Key derives the deterministic dedup key from the event name, the most
// specific stable client identifier available, and the custom-data hash.
func Key(eventName, stableID, payloadHash string) string {
	sum := sha256.Sum256([]byte(eventName + "|" + stableID + "|" + payloadHash))

	return hex.EncodeToString(sum[:])
}

// PayloadHash produces a stable hash of the custom-data content so that two
// submissions with identical payloads collide on the same key.
func PayloadHash(customData any) string {
	payload, err := json.Marshal(customData)
	if err != nil {
		payload = nil
	}

	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}

// StableID picks the most specific identifier among the click ID, browser ID,
// and client network address, in that order.
func StableID(fbc, fbp, clientIP string) string {
	switch {
	case fbc != "":
		return fbc
	case fbp != "":
		return fbp
	default:
		return clientIP
	}
}
