// Package cleaner validates and filters raw flight, ticket, and airport
// records. Malformed rows are dropped and counted, never fatal; an empty
// result after cleaning is the caller's condition to report.
package cleaner

import (
	"strings"

	"route_ranker/internal/records"
)

// Domain thresholds for retained rows.
const (
	MinDistance = 24.0   // miles
	MaxDistance = 5095.0 // miles
	MinAirtime  = 8.0    // minutes
	MaxAirtime  = 660.0  // minutes
	MinFare     = 39.0
	MaxFare     = 10000.0
)

// DropStats counts rows excluded during cleaning, by reason. It is
// diagnostic only; scoring correctness does not depend on it.
type DropStats struct {
	Input      int
	Kept       int
	Malformed  int // failed type coercion or missing a required field
	OutOfRange int // failed a domain threshold
	Cancelled  int // cancelled flag set
	Duplicate  int // duplicate itinerary identifier
}

// Dropped returns the total number of rows excluded.
func (s DropStats) Dropped() int {
	return s.Input - s.Kept
}

// Flights cleans raw flight rows into typed legs. Cancelled legs and legs
// outside the distance/airtime envelopes are dropped. Negative delays are
// clipped to zero; arrival delays above records.MaxPlausibleDelay drop the
// row. Departure delays above the cutoff are retained here and excluded
// later by the punctuality scorer.
func Flights(raws []records.RawFlight) ([]records.FlightLeg, DropStats) {
	st := DropStats{Input: len(raws)}
	legs := make([]records.FlightLeg, 0, len(raws))

	for _, raw := range raws {
		origin := records.NormalizeCode(raw.Origin)
		dest := records.NormalizeCode(raw.Destination)
		if origin == "" || dest == "" {
			st.Malformed++
			continue
		}

		cancelled, ok := records.ParseBool(raw.Cancelled)
		if !ok {
			st.Malformed++
			continue
		}
		if cancelled {
			st.Cancelled++
			continue
		}

		date, ok := records.ParseDate(raw.FlightDate)
		if !ok {
			st.Malformed++
			continue
		}
		distance, ok := records.ParseFloat(raw.Distance)
		if !ok {
			st.Malformed++
			continue
		}
		airtime, ok := records.ParseFloat(raw.Airtime)
		if !ok {
			st.Malformed++
			continue
		}
		depDelay, ok := records.ParseFloat(raw.DepDelay)
		if !ok {
			st.Malformed++
			continue
		}
		arrDelay, ok := records.ParseFloat(raw.ArrDelay)
		if !ok {
			st.Malformed++
			continue
		}

		// Missing occupancy defaults to zero; a present but unparseable
		// value is malformed.
		occupancy := 0.0
		if strings.TrimSpace(raw.Occupancy) != "" {
			occupancy, ok = records.ParseFloat(raw.Occupancy)
			if !ok {
				st.Malformed++
				continue
			}
		}

		if distance < MinDistance || distance > MaxDistance {
			st.OutOfRange++
			continue
		}
		if airtime < MinAirtime || airtime > MaxAirtime {
			st.OutOfRange++
			continue
		}

		depDelay = max(depDelay, 0)
		arrDelay = max(arrDelay, 0)
		if arrDelay > records.MaxPlausibleDelay {
			st.OutOfRange++
			continue
		}

		occupancy = min(max(occupancy, 0), 1)

		legs = append(legs, records.FlightLeg{
			Origin:      origin,
			Destination: dest,
			FlightDate:  date,
			Distance:    distance,
			Airtime:     airtime,
			DepDelay:    depDelay,
			ArrDelay:    arrDelay,
			Occupancy:   occupancy,
		})
	}

	st.Kept = len(legs)
	return legs, st
}

// Tickets cleans raw itinerary rows. Duplicate itinerary identifiers keep
// the first occurrence in input order; fares outside [MinFare, MaxFare] are
// dropped. The passenger count field is discarded entirely.
func Tickets(raws []records.RawTicket) ([]records.TicketItinerary, DropStats) {
	st := DropStats{Input: len(raws)}
	tickets := make([]records.TicketItinerary, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		id := strings.TrimSpace(raw.ItineraryID)
		if id == "" {
			st.Malformed++
			continue
		}
		if seen[id] {
			st.Duplicate++
			continue
		}
		seen[id] = true

		origin := records.NormalizeCode(raw.Origin)
		dest := records.NormalizeCode(raw.Destination)
		if origin == "" || dest == "" {
			st.Malformed++
			continue
		}

		fare, ok := records.ParseFloat(raw.Fare)
		if !ok {
			st.Malformed++
			continue
		}
		if fare < MinFare || fare > MaxFare {
			st.OutOfRange++
			continue
		}

		tickets = append(tickets, records.TicketItinerary{
			ItineraryID: id,
			Origin:      origin,
			Destination: dest,
			Fare:        fare,
		})
	}

	st.Kept = len(tickets)
	return tickets, st
}

// Airports cleans raw airport reference rows, keeping only medium and
// large airports with a well-formed IATA code.
func Airports(raws []records.RawAirport) ([]records.AirportRecord, DropStats) {
	st := DropStats{Input: len(raws)}
	airports := make([]records.AirportRecord, 0, len(raws))

	for _, raw := range raws {
		code := records.NormalizeCode(raw.IATA)
		if !records.ValidIATA(code) {
			st.Malformed++
			continue
		}

		size, ok := parseSize(raw.Size)
		if !ok {
			st.OutOfRange++
			continue
		}

		airports = append(airports, records.AirportRecord{IATA: code, Size: size})
	}

	st.Kept = len(airports)
	return airports, st
}

// parseSize maps a raw size category onto AirportSize. Reference exports
// use either bare categories ("medium") or suffixed ones ("medium_airport").
func parseSize(raw string) (records.AirportSize, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "medium", "medium_airport":
		return records.SizeMedium, true
	case "large", "large_airport":
		return records.SizeLarge, true
	}
	return records.SizeUnknown, false
}
