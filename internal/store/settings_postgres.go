package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atylespot/conversions-relay/internal/settings"
)

// SettingsPostgresStore reads pixel credentials from the pixel_settings table.
type SettingsPostgresStore struct {
	pool *pgxpool.Pool
}

// NewSettingsPostgresStore creates a new PostgreSQL-backed settings store.
func NewSettingsPostgresStore(pool *pgxpool.Pool) *SettingsPostgresStore {
	return &SettingsPostgresStore{pool: pool}
}

func (p *SettingsPostgresStore) GetPixelSettings(ctx context.Context) (*settings.PixelSettings, error) {
	query := `
		SELECT pixel_id, access_token, test_event_code
		FROM pixel_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var (
		ps            settings.PixelSettings
		testEventCode *string
	)

	err := p.pool.QueryRow(ctx, query).Scan(
		&ps.PixelID,
		&ps.AccessToken,
		&testEventCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrNotConfigured
		}

		return nil, err
	}

	if testEventCode != nil {
		ps.TestEventCode = *testEventCode
	}

	return &ps, nil
}
