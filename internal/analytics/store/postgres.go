package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atylespot/conversions-relay/internal/analytics"
)

// Postgres persists delivery log records to the event_deliveries table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL-backed delivery log store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) SaveDelivery(ctx context.Context, event *analytics.EventDelivered) error {
	query := `
		INSERT INTO event_deliveries (
			event_name, event_id, pixel_id, deduplication_key,
			match_quality, validation_score, events_received,
			trace_id, client_ip, user_agent, delivered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.EventName,
		event.EventID,
		event.PixelID,
		event.DeduplicationKey,
		event.MatchQuality,
		event.ValidationScore,
		event.EventsReceived,
		nullableString(event.TraceID),
		event.ClientIP,
		event.UserAgent,
		event.DeliveredAt,
	)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
