// Package enrichment joins airport metadata and average itinerary fares
// onto cleaned flight legs, producing one enriched row per leg with an
// estimated per-leg profit.
package enrichment

import (
	"route_ranker/internal/records"
)

// Options holds the profit model parameters applied during enrichment.
type Options struct {
	SeatsPerLeg      float64 // aircraft capacity assumed per leg
	CostPerMile      float64 // operating cost in dollars per mile flown
	MediumAirportFee float64 // per-leg fee for each medium endpoint
	LargeAirportFee  float64 // per-leg fee for each large endpoint
}

// DefaultOptions returns the standard profit model parameters.
func DefaultOptions() Options {
	return Options{
		SeatsPerLeg:      200,
		CostPerMile:      8.0,
		MediumAirportFee: 5000,
		LargeAirportFee:  10000,
	}
}

// EnrichAndJoin produces one EnrichedLeg per retained flight leg:
// canonical route key, endpoint size categories from the airport lookup,
// the route's mean itinerary fare, and the per-leg profit estimate.
//
// A leg whose endpoint is absent from the airport lookup keeps
// SizeUnknown; a route with no matching itineraries keeps a nil AvgFare
// and contributes zero revenue. Output order follows input flight order,
// so identical inputs yield identical output.
func EnrichAndJoin(flights []records.FlightLeg, tickets []records.TicketItinerary, airports []records.AirportRecord, opts Options) []records.EnrichedLeg {
	sizeByIATA := make(map[string]records.AirportSize, len(airports))
	for _, a := range airports {
		sizeByIATA[a.IATA] = a.Size
	}

	fareByRoute := averageFares(tickets)

	enriched := make([]records.EnrichedLeg, 0, len(flights))
	for _, leg := range flights {
		route := records.RouteKey(leg.Origin, leg.Destination)

		e := records.EnrichedLeg{
			FlightLeg:       leg,
			Route:           route,
			OriginSize:      sizeByIATA[leg.Origin],
			DestinationSize: sizeByIATA[leg.Destination],
		}
		if fare, ok := fareByRoute[route]; ok {
			f := fare
			e.AvgFare = &f
		}
		e.Profit = legProfit(e, opts)

		enriched = append(enriched, e)
	}
	return enriched
}

// averageFares aggregates itineraries by canonical route key and returns
// the arithmetic mean fare per route.
func averageFares(tickets []records.TicketItinerary) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, t := range tickets {
		route := records.RouteKey(t.Origin, t.Destination)
		sums[route] += t.Fare
		counts[route]++
	}

	means := make(map[string]float64, len(sums))
	for route, sum := range sums {
		means[route] = sum / float64(counts[route])
	}
	return means
}

// legProfit estimates the profit of a single leg: fare revenue at the
// observed occupancy, minus distance-based operating cost and endpoint
// airport fees. Legs without a matched fare earn no revenue but still
// carry their full cost.
func legProfit(e records.EnrichedLeg, opts Options) float64 {
	revenue := 0.0
	if e.AvgFare != nil {
		revenue = *e.AvgFare * opts.SeatsPerLeg * e.Occupancy
	}

	cost := e.Distance * opts.CostPerMile
	cost += airportFee(e.OriginSize, opts)
	cost += airportFee(e.DestinationSize, opts)

	return revenue - cost
}

func airportFee(size records.AirportSize, opts Options) float64 {
	switch size {
	case records.SizeMedium:
		return opts.MediumAirportFee
	case records.SizeLarge:
		return opts.LargeAirportFee
	}
	// Unknown endpoints incur no fee.
	return 0
}
