package export

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"route_ranker/internal/records"
)

func sampleRanking() []records.RouteScore {
	return []records.RouteScore{
		{Route: "CLT-FLO", TotalProfit: 30_000_000, Legs: 12, PunctualityScore: 0.95, PaybackMonths: 9, PaybackScore: 0.9, CombinedScore: 0.925},
		{Route: "JFK-LAX", TotalProfit: -1_000_000, Legs: 40, PunctualityScore: 0.7, PaybackMonths: math.Inf(1), PaybackScore: 0, CombinedScore: 0.35},
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, sampleRanking()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "route,total_profit,legs,punctuality_score,payback_months,payback_score,combined_score" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "CLT-FLO,30000000,12,") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], ",inf,") {
		t.Errorf("infinite payback not rendered as inf: %q", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var sb strings.Builder
	if err := WriteJSON(&sb, sampleRanking(), false); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d entries, want 2", len(decoded))
	}
	if decoded[0]["route"] != "CLT-FLO" {
		t.Errorf("route = %v, want CLT-FLO", decoded[0]["route"])
	}
	if decoded[1]["payback_months"] != nil {
		t.Errorf("infinite payback = %v, want null", decoded[1]["payback_months"])
	}
}

func TestWriteJSONEmptyRankingIsArray(t *testing.T) {
	var sb strings.Builder
	if err := WriteJSON(&sb, nil, false); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(sb.String()); got != "[]" {
		t.Errorf("empty ranking = %q, want []", got)
	}
}

func TestWriteCSVDeterministic(t *testing.T) {
	var first, second strings.Builder
	if err := WriteCSV(&first, sampleRanking()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if err := WriteCSV(&second, sampleRanking()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if first.String() != second.String() {
		t.Error("CSV output differs across identical inputs")
	}
}
