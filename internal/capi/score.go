package capi

// matchQualityWeights is the fixed points table behind the match-quality
// estimate. Strong identifiers carry full weight, contextual signals carry
// partial weight. Together with the combined name and geo signals the
// weights total 100.
var matchQualityWeights = map[string]float64{
	"em":                20,
	"ph":                20,
	"external_id":       15,
	"fbc":               10,
	"fbp":               10,
	"fb_login_id":       5,
	"client_ip_address": 5,
	"client_user_agent": 5,
}

// Combined signals: either half counts for half the weight.
const (
	nameWeight = 5 // fn + ln
	geoWeight  = 5 // ct, st, zp, country
)

// MatchQuality estimates how well the built user_data map will match the
// destination's identity graph. Purely informational; the score never gates
// forwarding.
func MatchQuality(userData map[string]any) float64 {
	score := 0.0

	for key, weight := range matchQualityWeights {
		if v, ok := userData[key]; ok && v != "" {
			score += weight
		}
	}

	nameParts := 0

	for _, key := range []string{"fn", "ln"} {
		if _, ok := userData[key]; ok {
			nameParts++
		}
	}

	score += nameWeight * float64(nameParts) / 2

	geoParts := 0

	for _, key := range []string{"ct", "st", "zp", "country"} {
		if _, ok := userData[key]; ok {
			geoParts++
		}
	}

	score += geoWeight * float64(geoParts) / 4

	if score > 100 {
		score = 100
	}

	return score
}

// TrackingData summarizes what the enrichment step produced, echoed back to
// the caller for visibility.
type TrackingData struct {
	ParamsCount     int     `json:"params_count"`
	HasEmail        bool    `json:"has_email"`
	HasPhone        bool    `json:"has_phone"`
	HasExternalID   bool    `json:"has_external_id"`
	HasFBC          bool    `json:"has_fbc"`
	HasFBP          bool    `json:"has_fbp"`
	HasFBLoginID    bool    `json:"has_fb_login_id"`
	HasIPAddress    bool    `json:"has_ip_address"`
	HasUserAgent    bool    `json:"has_user_agent"`
	MatchQuality    float64 `json:"match_quality"`
	ValidationScore float64 `json:"validation_score"`
}

// NewTrackingData builds the per-request diagnostics from the enriched
// user_data map and the validation outcome.
func NewTrackingData(userData map[string]any, validationScore float64) TrackingData {
	has := func(key string) bool {
		v, ok := userData[key]

		return ok && v != ""
	}

	return TrackingData{
		ParamsCount:     len(userData),
		HasEmail:        has("em"),
		HasPhone:        has("ph"),
		HasExternalID:   has("external_id"),
		HasFBC:          has("fbc"),
		HasFBP:          has("fbp"),
		HasFBLoginID:    has("fb_login_id"),
		HasIPAddress:    has("client_ip_address"),
		HasUserAgent:    has("client_user_agent"),
		MatchQuality:    MatchQuality(userData),
		ValidationScore: validationScore,
	}
}
