package recommend

import (
	"math"
	"testing"

	"route_ranker/internal/scoring"
)

func paybackTable(scores map[string]float64) map[string]scoring.Payback {
	table := make(map[string]scoring.Payback, len(scores))
	for route, score := range scores {
		table[route] = scoring.Payback{Score: score, Months: 10, Legs: 1}
	}
	return table
}

func TestRankOrdersByCombinedScore(t *testing.T) {
	punct := map[string]float64{"A-B": 1.0, "C-D": 0.4, "E-F": 0.8}
	payback := paybackTable(map[string]float64{"A-B": 0.2, "C-D": 0.6, "E-F": 0.8})

	ranked, err := Rank(punct, payback, DefaultOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("got %d routes, want 3", len(ranked))
	}

	// Combined (equal weights): E-F 0.8, A-B 0.6, C-D 0.5.
	wantOrder := []string{"E-F", "A-B", "C-D"}
	for i, want := range wantOrder {
		if ranked[i].Route != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Route, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].CombinedScore > ranked[i-1].CombinedScore {
			t.Error("ranking not sorted descending by combined score")
		}
	}
}

func TestRankTieBreaksByRouteKey(t *testing.T) {
	// R1 and R2 tie on combined score; R3 trails.
	punct := map[string]float64{"R1-XX": 0.9, "R2-XX": 0.9, "R3-XX": 0.5}
	payback := paybackTable(map[string]float64{"R1-XX": 0.9, "R2-XX": 0.9, "R3-XX": 0.5})

	opts := DefaultOptions()
	opts.N = 2
	ranked, err := Rank(punct, payback, opts)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d routes, want 2", len(ranked))
	}
	if ranked[0].Route != "R1-XX" || ranked[1].Route != "R2-XX" {
		t.Errorf("tie order = %s, %s, want R1-XX, R2-XX", ranked[0].Route, ranked[1].Route)
	}
}

func TestRankNormalizesWeights(t *testing.T) {
	punct := map[string]float64{"A-B": 1.0}
	payback := paybackTable(map[string]float64{"A-B": 0.5})

	// Weights 3/1 behave like 0.75/0.25.
	opts := Options{N: 1, WeightPunctuality: 3, WeightPayback: 1}
	ranked, err := Rank(punct, payback, opts)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := 0.75*1.0 + 0.25*0.5
	if got := ranked[0].CombinedScore; math.Abs(got-want) > 1e-12 {
		t.Errorf("combined = %v, want %v", got, want)
	}
}

func TestRankCapsNAtAvailableRoutes(t *testing.T) {
	punct := map[string]float64{"A-B": 0.5, "C-D": 0.6}
	payback := paybackTable(map[string]float64{"A-B": 0.5, "C-D": 0.6})

	opts := DefaultOptions()
	opts.N = 10
	ranked, err := Rank(punct, payback, opts)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 2 {
		t.Errorf("got %d routes, want all 2 available", len(ranked))
	}
}

func TestRankSkipsRoutesMissingFromEitherTable(t *testing.T) {
	punct := map[string]float64{"A-B": 0.5}
	payback := paybackTable(map[string]float64{"A-B": 0.5, "C-D": 0.9})

	ranked, err := Rank(punct, payback, DefaultOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Route != "A-B" {
		t.Errorf("ranked = %+v, want only A-B", ranked)
	}
}

func TestRankRejectsBadOptions(t *testing.T) {
	punct := map[string]float64{"A-B": 0.5}
	payback := paybackTable(map[string]float64{"A-B": 0.5})

	bad := []Options{
		{N: 0, WeightPunctuality: 0.5, WeightPayback: 0.5},
		{N: 5, WeightPunctuality: -0.1, WeightPayback: 0.5},
		{N: 5, WeightPunctuality: 0.5, WeightPayback: -1},
		{N: 5, WeightPunctuality: 0, WeightPayback: 0},
	}
	for i, opts := range bad {
		if _, err := Rank(punct, payback, opts); err == nil {
			t.Errorf("bad options %d accepted: %+v", i, opts)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranked, err := Rank(nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("got %d routes from empty input, want 0", len(ranked))
	}
}
