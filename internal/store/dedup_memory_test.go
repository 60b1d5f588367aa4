package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atylespot/conversions-relay/internal/store"
)

func TestDedupMemoryStore(t *testing.T) {
	t.Run("first claim succeeds, duplicate is suppressed", func(t *testing.T) {
		s := store.NewDedupMemoryStore()

		claimed, err := s.Claim(context.Background(), "key1", time.Minute, time.Hour)

		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = s.Claim(context.Background(), "key1", time.Minute, time.Hour)

		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("claims keys independently", func(t *testing.T) {
		s := store.NewDedupMemoryStore()

		_, _ = s.Claim(context.Background(), "key1", time.Minute, time.Hour)

		claimed, err := s.Claim(context.Background(), "key2", time.Minute, time.Hour)

		require.NoError(t, err)
		assert.True(t, claimed, "key2 should not collide with key1")
	})

	t.Run("claim succeeds again after the window", func(t *testing.T) {
		s := store.NewDedupMemoryStore()

		_, _ = s.Claim(context.Background(), "key1", 50*time.Millisecond, time.Hour)

		time.Sleep(60 * time.Millisecond)

		claimed, err := s.Claim(context.Background(), "key1", 50*time.Millisecond, time.Hour)

		require.NoError(t, err)
		assert.True(t, claimed, "expired window should allow a new claim")
	})

	t.Run("evicts entries older than the retention period", func(t *testing.T) {
		s := store.NewDedupMemoryStore()

		_, _ = s.Claim(context.Background(), "old", time.Minute, 50*time.Millisecond)

		time.Sleep(60 * time.Millisecond)

		_, _ = s.Claim(context.Background(), "fresh", time.Minute, 50*time.Millisecond)

		assert.Equal(t, 1, s.Len(), "the old entry should have been evicted")
	})
}
