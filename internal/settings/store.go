package settings

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no pixel settings record exists.
var ErrNotConfigured = errors.New("pixel settings not configured")

// PixelSettings is the persisted pixel credential record.
type PixelSettings struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
}

// Store defines the interface for reading persisted pixel settings.
type Store interface {
	GetPixelSettings(ctx context.Context) (*PixelSettings, error)
}
