package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the event forwarding routes.
func RegisterRoutes(api huma.API, events *EventsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "track-event",
		Method:      http.MethodPost,
		Path:        "/events",
		Summary:     "Forward a conversion event",
		Description: "Normalizes and hashes identifying fields, suppresses rapid duplicates, " +
			"and forwards the event to the Conversions API.",
		Tags: []string{"Events"},
	}, events.TrackEvent)
}
