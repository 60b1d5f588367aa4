package analytics

import "context"

// Store defines the interface for persisting delivery log records.
type Store interface {
	SaveDelivery(ctx context.Context, event *EventDelivered) error
}
