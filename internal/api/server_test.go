package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"route_ranker/internal/records"
	"route_ranker/internal/storage"
)

func seededServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	db, err := storage.OpenResults(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenResults: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ranked := []records.RouteScore{
		{Route: "CLT-FLO", TotalProfit: 30_000_000, Legs: 12, PunctualityScore: 0.95, PaybackMonths: 9, PaybackScore: 0.9, CombinedScore: 0.925},
		{Route: "JFK-LAX", TotalProfit: -1, Legs: 40, PunctualityScore: 0.7, PaybackMonths: math.Inf(1), PaybackScore: 0, CombinedScore: 0.35},
	}
	params := storage.RunParams{ThresholdMinutes: 15, N: 5}
	if _, err := db.SaveRun(params, ranked); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	return NewServer(db, cfg)
}

func get(t *testing.T, s *Server, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := seededServer(t, ServerConfig{Port: 8082})
	rec := get(t, s, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleLatestRanking(t *testing.T) {
	s := seededServer(t, ServerConfig{Port: 8082})
	rec := get(t, s, "/rankings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp RankingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(resp.Routes))
	}
	if resp.Routes[0].Route != "CLT-FLO" {
		t.Errorf("first route = %s, want CLT-FLO", resp.Routes[0].Route)
	}
	if resp.Params.ThresholdMinutes != 15 {
		t.Errorf("params threshold = %v, want 15", resp.Params.ThresholdMinutes)
	}
}

func TestHandleRouteHistory(t *testing.T) {
	s := seededServer(t, ServerConfig{Port: 8082})

	// Lowercase path parameter is normalized.
	rec := get(t, s, "/rankings/jfk-lax", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Route   string              `json:"route"`
		History []RouteHistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Route != "JFK-LAX" || len(resp.History) != 1 {
		t.Fatalf("resp = %+v, want JFK-LAX with 1 entry", resp)
	}
	if resp.History[0].PaybackMonths != nil {
		t.Errorf("infinite payback = %v, want null", *resp.History[0].PaybackMonths)
	}

	rec = get(t, s, "/rankings/AAA-BBB", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	s := seededServer(t, ServerConfig{Port: 8082})
	rec := get(t, s, "/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Runs []RunResponse `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Runs) != 1 {
		t.Errorf("got %d runs, want 1", len(resp.Runs))
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := ServerConfig{Port: 8082, AuthEnabled: true, APIKeys: []string{"secret"}}
	s := seededServer(t, cfg)

	if rec := get(t, s, "/rankings", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}
	if rec := get(t, s, "/rankings", map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}
	if rec := get(t, s, "/rankings", map[string]string{"X-API-Key": "secret"}); rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", rec.Code)
	}
	if rec := get(t, s, "/rankings", map[string]string{"Authorization": "Bearer secret"}); rec.Code != http.StatusOK {
		t.Errorf("bearer key status = %d, want 200", rec.Code)
	}
	// Health stays open for probes even with auth on.
	if rec := get(t, s, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health without key status = %d, want 200", rec.Code)
	}
}
