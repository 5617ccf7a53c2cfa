package storage

import (
	"math"
	"path/filepath"
	"testing"

	"route_ranker/internal/records"
)

func openTestResults(t *testing.T) *ResultsDB {
	t.Helper()
	db, err := OpenResults(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenResults: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testParams() RunParams {
	return RunParams{
		ThresholdMinutes:       15,
		ReferenceExcessMinutes: 180,
		InvestmentPerRoute:     90_000_000,
		PeriodMonths:           3,
		WeightPunctuality:      0.5,
		WeightPayback:          0.5,
		N:                      5,
	}
}

func TestSaveRunAndRanking(t *testing.T) {
	db := openTestResults(t)

	ranked := []records.RouteScore{
		{Route: "CLT-FLO", TotalProfit: 30_000_000, Legs: 12, PunctualityScore: 0.95, PaybackMonths: 9, PaybackScore: 0.9, CombinedScore: 0.925},
		{Route: "JFK-LAX", TotalProfit: -1_000_000, Legs: 40, PunctualityScore: 0.7, PaybackMonths: math.Inf(1), PaybackScore: 0, CombinedScore: 0.35},
	}

	runID, err := db.SaveRun(testParams(), ranked)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("run ID = 0, want nonzero")
	}

	got, err := db.Ranking(runID)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d routes, want 2", len(got))
	}
	if got[0].Route != "CLT-FLO" || got[1].Route != "JFK-LAX" {
		t.Errorf("rank order = %s, %s, want CLT-FLO, JFK-LAX", got[0].Route, got[1].Route)
	}
	if got[0].PaybackMonths != 9 {
		t.Errorf("PaybackMonths = %v, want 9", got[0].PaybackMonths)
	}
	if !math.IsInf(got[1].PaybackMonths, 1) {
		t.Errorf("PaybackMonths = %v, want +Inf round-tripped via NULL", got[1].PaybackMonths)
	}
}

func TestLatestRun(t *testing.T) {
	db := openTestResults(t)

	latest, err := db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun on empty store: %v", err)
	}
	if latest != nil {
		t.Fatalf("latest = %+v, want nil for empty store", latest)
	}

	first, err := db.SaveRun(testParams(), nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := db.SaveRun(testParams(), nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if second <= first {
		t.Errorf("run IDs not increasing: %d then %d", first, second)
	}

	latest, err = db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != second {
		t.Errorf("latest = %+v, want run %d", latest, second)
	}
	if latest.Params.N != 5 {
		t.Errorf("params N = %d, want 5", latest.Params.N)
	}
}

func TestListRunsAndRouteHistory(t *testing.T) {
	db := openTestResults(t)

	score := records.RouteScore{Route: "CLT-FLO", PunctualityScore: 0.9, PaybackMonths: 10, PaybackScore: 0.8, CombinedScore: 0.85}
	for i := 0; i < 3; i++ {
		if _, err := db.SaveRun(testParams(), []records.RouteScore{score}); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2 (limited)", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Error("ListRuns not newest first")
	}

	history, err := db.RouteHistory("CLT-FLO", 0)
	if err != nil {
		t.Fatalf("RouteHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d history entries, want 3", len(history))
	}
	if history[0].Score.Route != "CLT-FLO" {
		t.Errorf("history route = %s, want CLT-FLO", history[0].Score.Route)
	}

	if none, err := db.RouteHistory("AAA-BBB", 0); err != nil || len(none) != 0 {
		t.Errorf("unknown route history = %v, %v, want empty, nil", none, err)
	}
}

func TestCorruptCreatedAtSurfaces(t *testing.T) {
	db := openTestResults(t)

	score := records.RouteScore{Route: "CLT-FLO", PunctualityScore: 0.9, PaybackMonths: 10, PaybackScore: 0.8, CombinedScore: 0.85}
	runID, err := db.SaveRun(testParams(), []records.RouteScore{score})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := db.db.Exec(`UPDATE runs SET created_at = 'not-a-timestamp' WHERE id = ?`, runID); err != nil {
		t.Fatalf("corrupt created_at: %v", err)
	}

	if _, err := db.LatestRun(); err == nil {
		t.Error("LatestRun with corrupt created_at succeeded, want error")
	}
	if _, err := db.RouteHistory("CLT-FLO", 0); err == nil {
		t.Error("RouteHistory with corrupt created_at succeeded, want error")
	}
}
