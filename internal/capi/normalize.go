package capi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ClientInfo carries the network-level identity of the caller, extracted from
// forwarding headers by the HTTP layer.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// HashField normalizes (trim + lowercase) and SHA-256 hashes a single
// identifying field the way the Conversions API expects.
func HashField(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	sum := sha256.Sum256([]byte(normalized))

	return hex.EncodeToString(sum[:])
}

// NormalizePhone rewrites a phone number into international digit form.
// Bangladeshi local numbers (01xxxxxxxxx) become 880-prefixed; numbers that
// already carry the country code pass through. Unrecognized shapes are
// returned as their digit content, never rejected.
func NormalizePhone(raw string) string {
	var digits strings.Builder

	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	phone := digits.String()

	// "00" is the international call prefix; collapse it
	phone = strings.TrimPrefix(phone, "00")

	// Already international
	if strings.HasPrefix(phone, "880") && len(phone) == 13 {
		return phone
	}

	// Local trunk prefix: 01xxxxxxxxx -> 880 + 1xxxxxxxxx
	if strings.HasPrefix(phone, "01") && len(phone) == 11 {
		return "880" + phone[1:]
	}

	return phone
}

// normalizeGender maps free-form gender input to the single-letter code the
// destination expects. Unrecognized values are dropped.
func normalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return "m"
	case "f", "female":
		return "f"
	}

	return ""
}

// normalizeBirthDate reduces a date string to its digits (YYYYMMDD).
func normalizeBirthDate(raw string) string {
	var digits strings.Builder

	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	return digits.String()
}

// IDGenerator produces the random tail of generated browser identifiers.
type IDGenerator func() string

// Enricher builds the hashed user_data object for outbound events.
type Enricher struct {
	generate IDGenerator
	now      func() time.Time
}

// NewEnricher creates an enricher using the given random ID generator.
func NewEnricher(generate IDGenerator) *Enricher {
	return &Enricher{
		generate: generate,
		now:      time.Now,
	}
}

// EnsureBrowserIDs returns the fbp/fbc pair for an event, generating either
// identifier when the caller did not supply it.
func (e *Enricher) EnsureBrowserIDs(fbp, fbc string) (string, string) {
	if fbp == "" {
		fbp = fmt.Sprintf("fb.1.%d.%s", e.now().UnixMilli(), e.generate())
	}

	if fbc == "" {
		fbc = fmt.Sprintf("fb.1.%d.%s", e.now().UnixMilli(), e.generate())
	}

	return fbp, fbc
}

// BuildUserData produces the normalized, hashed user_data map. Absent fields
// are omitted entirely; the fbp/fbc pair, client IP, and user agent are always
// present.
func (e *Enricher) BuildUserData(ud UserData, client ClientInfo) map[string]any {
	out := make(map[string]any)

	putHashed := func(key, raw string) {
		if raw != "" {
			out[key] = HashField(raw)
		}
	}

	putHashed("em", ud.Email)

	if ud.Phone != "" {
		out["ph"] = HashField(NormalizePhone(ud.Phone))
	}

	putHashed("fn", ud.FirstName)
	putHashed("ln", ud.LastName)
	putHashed("ct", ud.City)
	putHashed("st", ud.State)
	putHashed("zp", ud.Zip)
	putHashed("country", ud.Country)
	putHashed("external_id", ud.ExternalID)

	if ge := normalizeGender(ud.Gender); ge != "" {
		out["ge"] = ge
	}

	if db := normalizeBirthDate(ud.BirthDate); db != "" {
		out["db"] = HashField(db)
	}

	if ud.FBLoginID != "" {
		out["fb_login_id"] = ud.FBLoginID
	}

	fbp, fbc := e.EnsureBrowserIDs(ud.FBP, ud.FBC)
	out["fbp"] = fbp
	out["fbc"] = fbc

	ip := client.IP
	if ip == "" {
		ip = "127.0.0.1"
	}

	out["client_ip_address"] = ip
	out["client_user_agent"] = client.UserAgent

	return out
}
