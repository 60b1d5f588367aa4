package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/atylespot/conversions-relay/internal/analytics"
)

// Noop is a no-op implementation of analytics.Store that logs deliveries.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op delivery log store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveDelivery(_ context.Context, event *analytics.EventDelivered) error {
	n.logger.Info("event delivered",
		zap.String("eventName", event.EventName),
		zap.String("eventId", event.EventID),
		zap.String("pixelId", event.PixelID),
		zap.Float64("matchQuality", event.MatchQuality),
		zap.Int("eventsReceived", event.EventsReceived),
	)

	return nil
}
