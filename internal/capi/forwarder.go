package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultGraphBaseURL is the production Conversions API host.
const DefaultGraphBaseURL = "https://graph.facebook.com"

// ForwardResult is the destination's verdict for an accepted event.
type ForwardResult struct {
	EventsReceived int    `json:"events_received"`
	TraceID        string `json:"fbtrace_id"`
}

// UpstreamError is a rejection returned by the Conversions API, relayed
// verbatim to the original caller.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("conversions api rejected event (%d): %s", e.StatusCode, e.Message)
}

// Forwarder performs the single outbound call to the Conversions API.
// No retries; failures are terminal for the request.
type Forwarder struct {
	client  *http.Client
	baseURL string
	version string
	logger  *zap.Logger
}

// NewForwarder creates a forwarder for the given Graph API base URL and
// version. The timeout bounds the whole outbound call.
func NewForwarder(baseURL, version string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}

	return &Forwarder{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		version: version,
		logger:  logger,
	}
}

type graphResponse struct {
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send forwards the enriched event with the resolved credentials and relays
// the destination's response.
func (f *Forwarder) Send(ctx context.Context, creds *Credentials, event Event, userData map[string]any) (*ForwardResult, error) {
	envelope := BuildEnvelope(event, userData)
	envelope["access_token"] = creds.AccessToken

	if creds.TestEventCode != "" {
		envelope["test_event_code"] = creds.TestEventCode
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/events", f.baseURL, f.version, creds.PixelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward event: %w", err)
	}
	defer resp.Body.Close()

	var parsed graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || parsed.Error != nil {
		message := "unknown upstream error"
		if parsed.Error != nil {
			message = parsed.Error.Message
		}

		f.logger.Warn("conversions api rejected event",
			zap.String("event_name", event.Name),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)

		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	return &ForwardResult{
		EventsReceived: parsed.EventsReceived,
		TraceID:        parsed.FBTraceID,
	}, nil
}
