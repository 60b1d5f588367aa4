package capi

// BuildEnvelope packages an event into the Conversions API request body. The
// access token and test event code are attached by the forwarder.
func BuildEnvelope(event Event, userData map[string]any) map[string]any {
	entry := map[string]any{
		"event_name":    event.Name,
		"event_time":    event.Time.Unix(),
		"action_source": ActionSourceWebsite,
		"user_data":     userData,
		"custom_data":   event.CustomData,
	}

	if event.ID != "" {
		entry["event_id"] = event.ID
	}

	if event.SourceURL != "" {
		entry["event_source_url"] = event.SourceURL
	}

	return map[string]any{
		"data": []map[string]any{entry},
	}
}
