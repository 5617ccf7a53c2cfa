// Package recommend blends the per-route scores into a weighted ranking
// and returns the top routes for investment.
package recommend

import (
	"fmt"
	"sort"

	"route_ranker/internal/records"
	"route_ranker/internal/scoring"
)

// Options configures the recommender.
type Options struct {
	// N is how many routes to return. Must be >= 1; capped at the number
	// of available routes.
	N int

	// WeightPunctuality and WeightPayback blend the two scores. Each must
	// be >= 0 and their sum must be positive; the blend divides by the
	// sum, so they need not sum to exactly 1.
	WeightPunctuality float64
	WeightPayback     float64
}

// DefaultOptions returns the standard ranking parameters: top 5 routes,
// equal weights.
func DefaultOptions() Options {
	return Options{
		N:                 5,
		WeightPunctuality: 0.5,
		WeightPayback:     0.5,
	}
}

// Rank combines the punctuality and payback score tables into one ranked
// list, ordered by combined score descending with ties broken by route
// key ascending. Only routes present in both tables are ranked; a route
// can miss the punctuality table when every one of its legs was a delay
// artifact.
//
// Returns fewer than N rows when fewer routes are available; that is not
// an error. Invalid options are caller misuse and fail immediately.
func Rank(punctuality map[string]float64, payback map[string]scoring.Payback, opts Options) ([]records.RouteScore, error) {
	if opts.N < 1 {
		return nil, fmt.Errorf("n must be >= 1, got %d", opts.N)
	}
	if opts.WeightPunctuality < 0 || opts.WeightPayback < 0 {
		return nil, fmt.Errorf("weights must be >= 0, got %v/%v", opts.WeightPunctuality, opts.WeightPayback)
	}
	weightSum := opts.WeightPunctuality + opts.WeightPayback
	if weightSum <= 0 {
		return nil, fmt.Errorf("weights must sum to a positive number, got %v", weightSum)
	}

	ranked := make([]records.RouteScore, 0, len(punctuality))
	for route, punctScore := range punctuality {
		pb, ok := payback[route]
		if !ok {
			continue
		}
		combined := (opts.WeightPunctuality*punctScore + opts.WeightPayback*pb.Score) / weightSum
		ranked = append(ranked, records.RouteScore{
			Route:            route,
			TotalProfit:      pb.TotalProfit,
			Legs:             pb.Legs,
			PunctualityScore: punctScore,
			PaybackMonths:    pb.Months,
			PaybackScore:     pb.Score,
			CombinedScore:    combined,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return ranked[i].Route < ranked[j].Route
	})

	if opts.N < len(ranked) {
		ranked = ranked[:opts.N]
	}
	return ranked, nil
}
