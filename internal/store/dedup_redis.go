package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupRedisStore is a Redis implementation of dedup.Store for deployments
// that want best-effort suppression across processes. Redis key expiry
// replaces the explicit retention sweep.
type DedupRedisStore struct {
	client *redis.Client
	prefix string
}

// NewDedupRedisStore creates a new Redis-backed dedup store.
func NewDedupRedisStore(client *redis.Client) *DedupRedisStore {
	return &DedupRedisStore{
		client: client,
		prefix: "dedup:",
	}
}

func (s *DedupRedisStore) Claim(ctx context.Context, key string, window, _ time.Duration) (bool, error) {
	// SET NX makes the check-then-record atomic on the Redis side
	return s.client.SetNX(ctx, s.prefix+key, time.Now().UnixNano(), window).Result()
}
