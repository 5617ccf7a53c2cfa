// Package records provides the typed record structures that flow through
// the route ranking pipeline, plus flexible field parsing for the loosely
// typed values found in raw feeds.
package records

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxPlausibleDelay is the delay cutoff in minutes. Departure delays above
// it are treated as data-entry or cancellation artifacts and excluded from
// punctuality scoring; arrival delays above it drop the row in cleaning.
const MaxPlausibleDelay = 300.0

// AirportSize categorizes an airport by size. Only medium and large
// airports survive cleaning; SizeUnknown marks an endpoint that was absent
// from the airport reference table.
type AirportSize string

const (
	SizeUnknown AirportSize = ""
	SizeMedium  AirportSize = "medium"
	SizeLarge   AirportSize = "large"
)

// RawFlight is one flight row as delivered by a loader, all fields still
// strings. Type coercion happens in the cleaner.
type RawFlight struct {
	Origin      string
	Destination string
	FlightDate  string
	Distance    string
	Airtime     string
	DepDelay    string
	ArrDelay    string
	Occupancy   string
	Cancelled   string
}

// RawTicket is one priced itinerary row as delivered by a loader.
// The passenger count field is accepted on input but discarded in cleaning.
type RawTicket struct {
	ItineraryID string
	Origin      string
	Destination string
	Fare        string
	Passengers  string
}

// RawAirport is one airport reference row as delivered by a loader.
type RawAirport struct {
	IATA string
	Size string
}

// FlightLeg is one operated flight segment after cleaning. Delays are
// already clipped to a floor of zero.
type FlightLeg struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	FlightDate  time.Time `json:"flight_date"`
	Distance    float64   `json:"distance"`  // miles
	Airtime     float64   `json:"air_time"`  // minutes
	DepDelay    float64   `json:"dep_delay"` // minutes
	ArrDelay    float64   `json:"arr_delay"` // minutes
	Occupancy   float64   `json:"occupancy"` // [0, 1]
}

// TicketItinerary is one priced itinerary after cleaning and deduplication.
type TicketItinerary struct {
	ItineraryID string  `json:"itin_id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Fare        float64 `json:"fare"`
}

// AirportRecord is one airport reference entry after cleaning.
type AirportRecord struct {
	IATA string      `json:"iata"`
	Size AirportSize `json:"size"`
}

// EnrichedLeg is a FlightLeg joined with its canonical route key, endpoint
// size categories, the route's average itinerary fare, and the estimated
// per-leg profit. AvgFare is nil when no itinerary matched the route.
type EnrichedLeg struct {
	FlightLeg
	Route           string      `json:"route"`
	OriginSize      AirportSize `json:"origin_size,omitempty"`
	DestinationSize AirportSize `json:"destination_size,omitempty"`
	AvgFare         *float64    `json:"avg_fare,omitempty"`
	Profit          float64     `json:"profit"`
}

// RouteScore is the per-route aggregate produced by the scoring stages and
// ranked by the recommender. PaybackMonths is +Inf for routes that never
// break even under the observed run-rate.
type RouteScore struct {
	Route            string  `json:"route"`
	TotalProfit      float64 `json:"total_profit"`
	Legs             int     `json:"legs"`
	PunctualityScore float64 `json:"punctuality_score"`
	PaybackMonths    float64 `json:"payback_months"`
	PaybackScore     float64 `json:"payback_score"`
	CombinedScore    float64 `json:"combined_score"`
}

// MarshalJSON renders an infinite payback as null, since JSON has no
// representation for +Inf.
func (r RouteScore) MarshalJSON() ([]byte, error) {
	type alias struct {
		Route            string   `json:"route"`
		TotalProfit      float64  `json:"total_profit"`
		Legs             int      `json:"legs"`
		PunctualityScore float64  `json:"punctuality_score"`
		PaybackMonths    *float64 `json:"payback_months"`
		PaybackScore     float64  `json:"payback_score"`
		CombinedScore    float64  `json:"combined_score"`
	}
	a := alias{
		Route:            r.Route,
		TotalProfit:      r.TotalProfit,
		Legs:             r.Legs,
		PunctualityScore: r.PunctualityScore,
		PaybackScore:     r.PaybackScore,
		CombinedScore:    r.CombinedScore,
	}
	if !math.IsInf(r.PaybackMonths, 0) {
		months := r.PaybackMonths
		a.PaybackMonths = &months
	}
	return json.Marshal(a)
}

// ParseFloat parses a float field that may carry surrounding whitespace or
// be empty. Empty input is reported as ok=false, not an error.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool parses a boolean field in any of the encodings seen in flight
// data exports: 1/0, 1.0/0.0, true/false, t/f, yes/no.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true, true
	case "0", "0.0", "false", "f", "no", "n", "":
		return false, true
	}
	// Some exports encode the flag as an arbitrary float.
	if f, ok := ParseFloat(s); ok {
		return f != 0, true
	}
	return false, false
}

// dateLayouts are tried in order when coercing flight dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	time.RFC3339,
}

// ParseDate parses a flight date in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
