package capi

import (
	"net/url"
	"strings"
)

// EventSchema declares which custom fields an event type must and may carry.
type EventSchema struct {
	Required []string
	Optional []string
}

// eventSchemas is the static lookup table for the standard event types.
// Event names not listed here bypass validation entirely.
var eventSchemas = map[string]EventSchema{
	"PageView": {
		Required: []string{"content_name", "content_category"},
		Optional: []string{"content_ids"},
	},
	"ViewContent": {
		Required: []string{"content_name", "content_category", "content_ids"},
		Optional: []string{"value", "currency", "content_type"},
	},
	"Search": {
		Required: []string{"search_string"},
		Optional: []string{"content_ids", "content_category"},
	},
	"AddToCart": {
		Required: []string{"content_ids", "content_name", "value", "currency"},
		Optional: []string{"content_type", "contents"},
	},
	"AddToWishlist": {
		Required: []string{"content_name", "content_ids"},
		Optional: []string{"value", "currency"},
	},
	"InitiateCheckout": {
		Required: []string{"value", "currency", "num_items"},
		Optional: []string{"content_ids", "contents"},
	},
	"AddPaymentInfo": {
		Required: []string{"value", "currency"},
		Optional: []string{"content_ids", "contents"},
	},
	"Purchase": {
		Required: []string{"value", "currency", "content_ids"},
		Optional: []string{"order_id", "num_items", "contents"},
	},
	"Lead": {
		Required: []string{"content_name"},
		Optional: []string{"value", "currency"},
	},
	"CompleteRegistration": {
		Required: []string{"content_name", "status"},
		Optional: []string{"value", "currency"},
	},
	"Contact": {
		Required: []string{"content_name"},
		Optional: []string{"content_category"},
	},
}

// SchemaFor returns the schema for a known event type.
func SchemaFor(eventName string) (EventSchema, bool) {
	schema, ok := eventSchemas[eventName]

	return schema, ok
}

// ValidationResult is the outcome of checking an event's custom data against
// its schema.
type ValidationResult struct {
	Valid    bool
	Known    bool
	Missing  []string
	Required []string
	Optional []string
	Score    float64
}

// Validate checks that the custom data carries every required field for the
// event type. Unknown event names always validate at maximum score.
func Validate(eventName string, data CustomData) ValidationResult {
	schema, known := eventSchemas[eventName]
	if !known {
		return ValidationResult{Valid: true, Score: 100}
	}

	result := ValidationResult{
		Known:    true,
		Required: schema.Required,
		Optional: schema.Optional,
	}

	for _, field := range schema.Required {
		if !data.FieldPresent(field) {
			result.Missing = append(result.Missing, field)
		}
	}

	if len(result.Missing) > 0 {
		return result
	}

	result.Valid = true
	result.Score = validationScore(schema, data)

	return result
}

// validationScore rates a valid event: 70 points for full required coverage,
// the rest proportional to how many optional fields were supplied.
func validationScore(schema EventSchema, data CustomData) float64 {
	const requiredWeight = 70.0

	if len(schema.Optional) == 0 {
		return 100
	}

	present := 0

	for _, field := range schema.Optional {
		if data.FieldPresent(field) {
			present++
		}
	}

	return requiredWeight + (100-requiredWeight)*float64(present)/float64(len(schema.Optional))
}

// RepairPageView fills in the PageView defaults when the caller omitted them:
// the content name is derived from the Referer path and the category falls
// back to a fixed literal. Other event types are returned untouched.
func RepairPageView(eventName string, data CustomData, referrer string) CustomData {
	if eventName != "PageView" {
		return data
	}

	if data.ContentName == "" {
		data.ContentName = pageNameFromReferrer(referrer)
	}

	if data.ContentCategory == "" {
		data.ContentCategory = "page"
	}

	return data
}

func pageNameFromReferrer(referrer string) string {
	if referrer == "" {
		return "Home"
	}

	u, err := url.Parse(referrer)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "Home"
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	return segments[len(segments)-1]
}
