package analytics

import "time"

// TopicEventDelivered is the topic for successfully forwarded events.
const TopicEventDelivered = "capi.event.delivered"

// EventDelivered is emitted after the Conversions API accepts an event. It is
// the record persisted to the delivery log.
type EventDelivered struct {
	EventName        string    `json:"eventName"`
	EventID          string    `json:"eventId"`
	PixelID          string    `json:"pixelId"`
	DeduplicationKey string    `json:"deduplicationKey"`
	MatchQuality     float64   `json:"matchQuality"`
	ValidationScore  float64   `json:"validationScore"`
	EventsReceived   int       `json:"eventsReceived"`
	TraceID          string    `json:"traceId,omitempty"`
	ClientIP         string    `json:"clientIp"`
	UserAgent        string    `json:"userAgent"`
	DeliveredAt      time.Time `json:"deliveredAt"`
}
