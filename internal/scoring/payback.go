package scoring

import (
	"fmt"
	"math"

	"route_ranker/internal/records"
)

// PaybackOptions configures the payback scorer.
type PaybackOptions struct {
	// InvestmentPerRoute is the capital outlay to recoup, in dollars.
	// Must be > 0.
	InvestmentPerRoute float64

	// PeriodMonths is the length of the observed profit period. Must be > 0.
	PeriodMonths float64
}

// DefaultPaybackOptions returns the standard parameters: a $90M aircraft
// investment against one quarter of observed profit.
func DefaultPaybackOptions() PaybackOptions {
	return PaybackOptions{
		InvestmentPerRoute: 90_000_000,
		PeriodMonths:       3.0,
	}
}

// Payback is the per-route payback aggregate. Months is +Inf for routes
// whose run-rate never recoups the investment; that is a defined outcome,
// not an error, and infinities sort last.
type Payback struct {
	TotalProfit float64
	Legs        int
	Months      float64
	Score       float64
}

// PaybackByRoute aggregates profit per route and computes months to
// breakeven plus a batch-normalized speed score in [0, 1].
//
// Normalization is batch-relative: scores are divided by the maximum
// finite payback in this invocation, so the score changes when the route
// set changes. A batch with no finite payback scores 0 everywhere.
func PaybackByRoute(legs []records.EnrichedLeg, opts PaybackOptions) (map[string]Payback, error) {
	if opts.InvestmentPerRoute <= 0 {
		return nil, fmt.Errorf("investment per route must be > 0, got %v", opts.InvestmentPerRoute)
	}
	if opts.PeriodMonths <= 0 {
		return nil, fmt.Errorf("profit period months must be > 0, got %v", opts.PeriodMonths)
	}

	result := make(map[string]Payback)
	for _, leg := range legs {
		p := result[leg.Route]
		p.TotalProfit += leg.Profit
		p.Legs++
		result[leg.Route] = p
	}

	// First pass: months to breakeven, tracking the batch maximum over
	// finite values only.
	maxFinite := 0.0
	for route, p := range result {
		monthly := p.TotalProfit / opts.PeriodMonths
		if monthly <= 0 {
			p.Months = math.Inf(1)
		} else {
			p.Months = opts.InvestmentPerRoute / monthly
			maxFinite = max(maxFinite, p.Months)
		}
		result[route] = p
	}

	// Second pass: normalize. With no finite payback in the batch every
	// score is 0 (degenerate, reportable by the caller).
	for route, p := range result {
		if maxFinite > 0 && !math.IsInf(p.Months, 1) {
			p.Score = max(0, 1-p.Months/maxFinite)
		}
		result[route] = p
	}

	return result, nil
}
