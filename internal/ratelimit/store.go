package ratelimit

import (
	"context"
	"time"
)

// Store records requests and reports how many fall inside the window.
type Store interface {
	// Record registers a request for the key and returns the number of
	// requests seen within the window, including this one.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}
