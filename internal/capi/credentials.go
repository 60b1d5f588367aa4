package capi

import (
	"context"
	"errors"

	"github.com/atylespot/conversions-relay/internal/settings"
)

// ErrMissingCredentials indicates no credential source produced a usable
// pixel ID + access token pair.
var ErrMissingCredentials = errors.New("no pixel credentials available")

// Credentials is a resolved pixel ID + access token pair.
type Credentials struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	Source        string
}

// Credential sources, in resolution priority order.
const (
	SourceRequest  = "request"
	SourceStatic   = "static"
	SourceSettings = "settings"
)

// CredentialDebug records which sources were consulted, returned to the
// caller when resolution fails so the misconfiguration is visible.
type CredentialDebug struct {
	RequestProvided  bool   `json:"request_provided"`
	StaticConfigured bool   `json:"static_configured"`
	SettingsChecked  bool   `json:"settings_checked"`
	SettingsFound    bool   `json:"settings_found"`
	SettingsError    string `json:"settings_error,omitempty"`
}

// CredentialResolver resolves pixel credentials with the priority order:
// request override, statically configured (flags/env), settings store.
type CredentialResolver struct {
	static Credentials
	store  settings.Store
}

// NewCredentialResolver creates a resolver. The static credentials come from
// process configuration; store may be backed by Postgres or memory.
func NewCredentialResolver(static Credentials, store settings.Store) *CredentialResolver {
	static.Source = SourceStatic

	return &CredentialResolver{
		static: static,
		store:  store,
	}
}

// Resolve returns the first complete credential pair. The debug record is
// always populated, so failures can report what was checked.
func (r *CredentialResolver) Resolve(ctx context.Context, pixelID, accessToken string) (*Credentials, *CredentialDebug, error) {
	debug := &CredentialDebug{}

	if pixelID != "" && accessToken != "" {
		debug.RequestProvided = true

		return &Credentials{
			PixelID:       pixelID,
			AccessToken:   accessToken,
			TestEventCode: r.static.TestEventCode,
			Source:        SourceRequest,
		}, debug, nil
	}

	if r.static.PixelID != "" && r.static.AccessToken != "" {
		debug.StaticConfigured = true

		creds := r.static

		return &creds, debug, nil
	}

	debug.SettingsChecked = true

	stored, err := r.store.GetPixelSettings(ctx)
	if err != nil {
		if !errors.Is(err, settings.ErrNotConfigured) {
			debug.SettingsError = err.Error()
		}

		return nil, debug, ErrMissingCredentials
	}

	if stored.PixelID == "" || stored.AccessToken == "" {
		debug.SettingsFound = true

		return nil, debug, ErrMissingCredentials
	}

	debug.SettingsFound = true

	return &Credentials{
		PixelID:       stored.PixelID,
		AccessToken:   stored.AccessToken,
		TestEventCode: stored.TestEventCode,
		Source:        SourceSettings,
	}, debug, nil
}
