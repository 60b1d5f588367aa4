package capi

import "time"

// ActionSourceWebsite marks events that originated from a browser session.
const ActionSourceWebsite = "website"

// Event is a single conversion event to be forwarded to the Conversions API.
type Event struct {
	Name       string
	ID         string
	Time       time.Time
	SourceURL  string
	UserData   UserData
	CustomData CustomData
}

// UserData holds the raw, unhashed identifying fields supplied by the caller.
// Every field is optional; empty means absent and is omitted from the
// forwarded payload.
type UserData struct {
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	Gender     string
	BirthDate  string
	City       string
	State      string
	Zip        string
	Country    string
	ExternalID string
	FBLoginID  string
	FBC        string
	FBP        string
}

// Content is a single line item inside CustomData.Contents.
type Content struct {
	ID        string  `json:"id"`
	Quantity  int     `json:"quantity"`
	ItemPrice float64 `json:"item_price,omitempty"`
}

// CustomData holds the event-specific fields. Numeric fields are pointers so
// an explicit zero can be told apart from absence.
type CustomData struct {
	Value           *float64  `json:"value,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	ContentIDs      []string  `json:"content_ids,omitempty"`
	ContentName     string    `json:"content_name,omitempty"`
	ContentCategory string    `json:"content_category,omitempty"`
	ContentType     string    `json:"content_type,omitempty"`
	Contents        []Content `json:"contents,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	SearchString    string    `json:"search_string,omitempty"`
	NumItems        *int      `json:"num_items,omitempty"`
	Status          string    `json:"status,omitempty"`
}

// FieldPresent reports whether the named custom field carries a usable value.
// Field names follow the wire format (snake_case).
func (c CustomData) FieldPresent(name string) bool {
	switch name {
	case "value":
		return c.Value != nil
	case "currency":
		return c.Currency != ""
	case "content_ids":
		return len(c.ContentIDs) > 0
	case "content_name":
		return c.ContentName != ""
	case "content_category":
		return c.ContentCategory != ""
	case "content_type":
		return c.ContentType != ""
	case "contents":
		return len(c.Contents) > 0
	case "order_id":
		return c.OrderID != ""
	case "search_string":
		return c.SearchString != ""
	case "num_items":
		return c.NumItems != nil
	case "status":
		return c.Status != ""
	default:
		return false
	}
}
