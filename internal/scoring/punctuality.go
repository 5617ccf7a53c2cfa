// Package scoring computes the two normalized route scores: on-time
// reliability from delay minutes, and capital payback speed from
// aggregated profit.
package scoring

import (
	"fmt"

	"route_ranker/internal/records"
)

// PunctualityOptions configures the punctuality scorer.
type PunctualityOptions struct {
	// ThresholdMinutes is the free delay allowance: minutes of delay that
	// incur no penalty. Must be >= 0.
	ThresholdMinutes float64

	// ReferenceExcessMinutes is the excess (beyond-threshold) delay that
	// maps to a full penalty of 1.0. Penalties grow linearly up to it.
	// Must be > 0.
	ReferenceExcessMinutes float64
}

// DefaultPunctualityOptions returns the standard scoring parameters:
// a 15 minute free allowance, with three hours of excess delay zeroing
// the score.
func DefaultPunctualityOptions() PunctualityOptions {
	return PunctualityOptions{
		ThresholdMinutes:       15.0,
		ReferenceExcessMinutes: 180.0,
	}
}

// Punctuality computes one reliability score per route in [0, 1], where 1
// is perfectly on time. Legs whose departure delay exceeds
// records.MaxPlausibleDelay are data artifacts and do not contribute.
// Routes with no contributing legs are absent from the result, not zero.
//
// Invalid options are caller misuse and fail immediately.
func Punctuality(legs []records.EnrichedLeg, opts PunctualityOptions) (map[string]float64, error) {
	if opts.ThresholdMinutes < 0 {
		return nil, fmt.Errorf("punctuality threshold must be >= 0, got %v", opts.ThresholdMinutes)
	}
	if opts.ReferenceExcessMinutes <= 0 {
		return nil, fmt.Errorf("reference excess minutes must be > 0, got %v", opts.ReferenceExcessMinutes)
	}

	penaltySums := make(map[string]float64)
	counts := make(map[string]int)

	for _, leg := range legs {
		// Cleaning already floors delays at zero; re-assert here so the
		// scorer stands alone.
		dep := max(leg.DepDelay, 0)
		arr := max(leg.ArrDelay, 0)

		if dep > records.MaxPlausibleDelay {
			continue
		}

		excess := max(dep-opts.ThresholdMinutes, 0) + max(arr-opts.ThresholdMinutes, 0)
		penaltySums[leg.Route] += excess / opts.ReferenceExcessMinutes
		counts[leg.Route]++
	}

	scores := make(map[string]float64, len(counts))
	for route, n := range counts {
		penalty := penaltySums[route] / float64(n)
		scores[route] = min(max(1-penalty, 0), 1)
	}
	return scores, nil
}
