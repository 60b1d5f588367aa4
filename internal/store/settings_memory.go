package store

import (
	"context"
	"sync"

	"github.com/atylespot/conversions-relay/internal/settings"
)

// SettingsMemoryStore is an in-memory implementation of settings.Store, used
// when no database is configured and in tests.
type SettingsMemoryStore struct {
	mu       sync.RWMutex
	settings *settings.PixelSettings
}

// NewSettingsMemoryStore creates an empty in-memory settings store.
func NewSettingsMemoryStore() *SettingsMemoryStore {
	return &SettingsMemoryStore{}
}

func (m *SettingsMemoryStore) GetPixelSettings(_ context.Context) (*settings.PixelSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return nil, settings.ErrNotConfigured
	}

	ps := *m.settings

	return &ps, nil
}

// SetPixelSettings stores the given settings record.
func (m *SettingsMemoryStore) SetPixelSettings(ps settings.PixelSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = &ps
}
