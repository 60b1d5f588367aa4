package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atylespot/conversions-relay/internal/analytics"
	"github.com/atylespot/conversions-relay/internal/capi"
	"github.com/atylespot/conversions-relay/internal/dedup"
	"github.com/atylespot/conversions-relay/internal/messaging"
)

// EventForwarder performs the outbound Conversions API call.
type EventForwarder interface {
	Send(ctx context.Context, creds *capi.Credentials, event capi.Event, userData map[string]any) (*capi.ForwardResult, error)
}

// EventsHandler runs the track-event pipeline: validate, deduplicate, resolve
// credentials, enrich, score, forward, and log the delivery.
type EventsHandler struct {
	enricher         *capi.Enricher
	gate             *dedup.Gate
	resolver         *capi.CredentialResolver
	forwarder        EventForwarder
	publishDelivered messaging.Publish[analytics.EventDelivered]
	logger           *zap.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(
	enricher *capi.Enricher,
	gate *dedup.Gate,
	resolver *capi.CredentialResolver,
	forwarder EventForwarder,
	publishDelivered messaging.Publish[analytics.EventDelivered],
	logger *zap.Logger,
) *EventsHandler {
	return &EventsHandler{
		enricher:         enricher,
		gate:             gate,
		resolver:         resolver,
		forwarder:        forwarder,
		publishDelivered: publishDelivered,
		logger:           logger,
	}
}

// TrackEvent handles POST /events.
func (h *EventsHandler) TrackEvent(ctx context.Context, req *TrackEventRequest) (*TrackEventResponse, error) {
	meta := RequestMetaFromContext(ctx)
	userData := mergeUserData(req)
	client := clientInfo(req, meta)

	// Validate custom data, with one repair attempt for PageView
	customData := req.Body.CustomData

	validation := capi.Validate(req.Body.EventName, customData)
	if !validation.Valid {
		customData = capi.RepairPageView(req.Body.EventName, customData, meta.Referrer)
		validation = capi.Validate(req.Body.EventName, customData)
	}

	if !validation.Valid {
		return validationFailure(validation), nil
	}

	// Duplicate suppression keys off caller-supplied identifiers only;
	// generated browser IDs differ per call and would defeat it
	key := dedup.Key(
		req.Body.EventName,
		dedup.StableID(userData.FBC, userData.FBP, client.IP),
		dedup.PayloadHash(customData),
	)

	accepted, err := h.gate.Claim(ctx, key)
	if err != nil {
		h.logger.Error("dedup claim failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("dedup check failed", err)
	}

	if !accepted {
		return duplicateRejection(key), nil
	}

	creds, debug, err := h.resolver.Resolve(ctx, req.Body.PixelID, req.Body.AccessToken)
	if err != nil {
		return credentialFailure(debug), nil
	}

	userDataMap := h.enricher.BuildUserData(userData, client)
	tracking := capi.NewTrackingData(userDataMap, validation.Score)

	eventID := req.Body.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	sourceURL := req.Body.EventSourceURL
	if sourceURL == "" {
		sourceURL = meta.Referrer
	}

	event := capi.Event{
		Name:       req.Body.EventName,
		ID:         eventID,
		Time:       time.Now(),
		SourceURL:  sourceURL,
		UserData:   userData,
		CustomData: customData,
	}

	result, err := h.forwarder.Send(ctx, creds, event, userDataMap)
	if err != nil {
		return forwardFailure(err, key, &tracking), nil
	}

	delivered := &analytics.EventDelivered{
		EventName:        event.Name,
		EventID:          event.ID,
		PixelID:          creds.PixelID,
		DeduplicationKey: key,
		MatchQuality:     tracking.MatchQuality,
		ValidationScore:  tracking.ValidationScore,
		EventsReceived:   result.EventsReceived,
		TraceID:          result.TraceID,
		ClientIP:         client.IP,
		UserAgent:        client.UserAgent,
		DeliveredAt:      time.Now(),
	}

	if err := h.publishDelivered(delivered); err != nil {
		h.logger.Error("failed to publish delivery event",
			zap.String("eventId", event.ID),
			zap.Error(err),
		)
	}

	resp := &TrackEventResponse{Status: http.StatusOK}
	resp.Body.Success = true
	resp.Body.EventsReceived = result.EventsReceived
	resp.Body.EventID = event.ID
	resp.Body.DeduplicationKey = key
	resp.Body.TraceID = result.TraceID
	resp.Body.TrackingData = &tracking

	return resp, nil
}

// mergeUserData combines the nested user_data object with the flat
// advanced-tracking fields; the nested object wins where both are set.
func mergeUserData(req *TrackEventRequest) capi.UserData {
	ud := req.Body.UserData

	fallback := func(nested, flat string) string {
		if nested != "" {
			return nested
		}

		return flat
	}

	return capi.UserData{
		Email:      fallback(ud.Email, req.Body.Email),
		Phone:      fallback(ud.Phone, req.Body.Phone),
		FirstName:  ud.FirstName,
		LastName:   ud.LastName,
		Gender:     ud.Gender,
		BirthDate:  ud.DateOfBirth,
		City:       fallback(ud.City, req.Body.City),
		State:      fallback(ud.State, req.Body.State),
		Zip:        fallback(ud.Zip, req.Body.Zip),
		Country:    fallback(ud.Country, req.Body.Country),
		ExternalID: fallback(ud.ExternalID, req.Body.ExternalID),
		FBLoginID:  fallback(ud.FBLoginID, req.Body.FBLoginID),
		FBC:        fallback(ud.FBC, req.Body.FBC),
		FBP:        fallback(ud.FBP, req.Body.FBP),
	}
}

func clientInfo(req *TrackEventRequest, meta RequestMeta) capi.ClientInfo {
	ip := req.Body.IPAddress
	if ip == "" {
		ip = meta.ClientIP
	}

	ua := req.Body.UserAgent
	if ua == "" {
		ua = meta.UserAgent
	}

	return capi.ClientInfo{IP: ip, UserAgent: ua}
}

func validationFailure(validation capi.ValidationResult) *TrackEventResponse {
	resp := &TrackEventResponse{Status: http.StatusBadRequest}
	resp.Body.Success = false
	resp.Body.Error = "missing_required_params"
	resp.Body.Message = "event is missing required custom data fields"
	resp.Body.MissingParams = validation.Missing
	resp.Body.RequiredParams = validation.Required
	resp.Body.OptionalParams = validation.Optional

	return resp
}

func duplicateRejection(key string) *TrackEventResponse {
	resp := &TrackEventResponse{Status: http.StatusConflict}
	resp.Body.Success = false
	resp.Body.Error = "duplicate_event"
	resp.Body.Message = "an identical event was accepted within the deduplication window"
	resp.Body.DeduplicationKey = key

	return resp
}

func credentialFailure(debug *capi.CredentialDebug) *TrackEventResponse {
	resp := &TrackEventResponse{Status: http.StatusBadRequest}
	resp.Body.Success = false
	resp.Body.Error = "missing_credentials"
	resp.Body.Message = "no pixel id and access token found in request, configuration, or settings"
	resp.Body.Debug = debug

	return resp
}

func forwardFailure(err error, key string, tracking *capi.TrackingData) *TrackEventResponse {
	resp := &TrackEventResponse{Status: http.StatusBadGateway}
	resp.Body.Success = false
	resp.Body.Error = "forward_failed"
	resp.Body.Message = err.Error()
	resp.Body.DeduplicationKey = key
	resp.Body.TrackingData = tracking

	var upstream *capi.UpstreamError
	if errors.As(err, &upstream) {
		resp.Body.Message = upstream.Message
	}

	return resp
}
