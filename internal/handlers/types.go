package handlers

import "github.com/atylespot/conversions-relay/internal/capi"

// UserDataBody is the nested user_data object of a track request. All fields
// are optional raw values; hashing happens server-side.
type UserDataBody struct {
	Email       string `doc:"Email address (raw, hashed server-side)" json:"email,omitempty"`
	Phone       string `doc:"Phone number in local or international form" json:"phone,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Gender      string `doc:"Free-form gender, mapped to m/f"            json:"gender,omitempty"`
	DateOfBirth string `doc:"Birth date, digits are kept (YYYYMMDD)"     json:"date_of_birth,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	FBLoginID   string `json:"fb_login_id,omitempty"`
	FBC         string `doc:"Click identifier (_fbc cookie)"   json:"fbc,omitempty"`
	FBP         string `doc:"Browser identifier (_fbp cookie)" json:"fbp,omitempty"`
}

// TrackEventRequest is the request body for forwarding a conversion event.
// The flat advanced-tracking fields fill any gaps in user_data, so simple
// callers can skip the nested object entirely.
type TrackEventRequest struct {
	Body struct {
		EventName      string          `doc:"Event type, e.g. Purchase or ViewContent" example:"ViewContent" json:"event_name"`
		EventID        string          `doc:"Caller-supplied idempotency identifier" json:"event_id,omitempty"`
		EventSourceURL string          `doc:"Page the event fired on" json:"event_source_url,omitempty"`
		PixelID        string          `doc:"Pixel override; falls back to configuration" json:"pixel_id,omitempty"`
		AccessToken    string          `doc:"Access token override; falls back to configuration" json:"access_token,omitempty"`
		UserData       UserDataBody    `json:"user_data,omitempty"`
		CustomData     capi.CustomData `json:"custom_data,omitempty"`

		// Flat advanced-tracking fields
		FBC        string `json:"fbc,omitempty"`
		FBP        string `json:"fbp,omitempty"`
		Email      string `json:"email,omitempty"`
		Phone      string `json:"phone,omitempty"`
		ExternalID string `json:"external_id,omitempty"`
		FBLoginID  string `json:"fb_login_id,omitempty"`
		IPAddress  string `doc:"Client IP override" json:"ip_address,omitempty"`
		UserAgent  string `doc:"Client user agent override" json:"user_agent,omitempty"`
		City       string `json:"city,omitempty"`
		State      string `json:"state,omitempty"`
		Zip        string `json:"zip,omitempty"`
		Country    string `json:"country,omitempty"`
	}
}

// TrackEventResponse is the response for a track request. The same shape
// serves success and the domain failure modes; Status carries the HTTP code.
type TrackEventResponse struct {
	Status int
	Body   struct {
		Success          bool                  `json:"success"`
		EventsReceived   int                   `json:"events_received,omitempty"`
		EventID          string                `json:"event_id,omitempty"`
		DeduplicationKey string                `json:"deduplication_key,omitempty"`
		TraceID          string                `json:"fbtrace_id,omitempty"`
		TrackingData     *capi.TrackingData    `json:"tracking_data,omitempty"`
		Error            string                `json:"error,omitempty"`
		Message          string                `json:"message,omitempty"`
		MissingParams    []string              `json:"missing_params,omitempty"`
		RequiredParams   []string              `json:"required_params,omitempty"`
		OptionalParams   []string              `json:"optional_params,omitempty"`
		Debug            *capi.CredentialDebug `json:"debug,omitempty"`
	}
}
