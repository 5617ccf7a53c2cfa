// Package api provides the REST API server for stored ranking runs.
package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"route_ranker/internal/records"
	"route_ranker/internal/storage"
)

// ServerConfig holds the rankings API server settings.
type ServerConfig struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string
}

// Server serves ranking runs from the SQLite results store.
type Server struct {
	db          *storage.ResultsDB
	port        int
	authEnabled bool
	apiKeys     map[string]bool
}

// NewServer creates a rankings API server.
func NewServer(db *storage.ResultsDB, cfg ServerConfig) *Server {
	keys := make(map[string]bool, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		db:          db,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health stays open so probes work without a key.
		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			if s.authEnabled {
				r.Use(s.authMiddleware)
			}
			r.Get("/rankings", s.handleLatestRanking)
			r.Get("/rankings/{route}", s.handleRouteHistory)
			r.Get("/runs", s.handleListRuns)
		})
	})

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Rankings API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		if s.authEnabled {
			r.Use(s.authMiddleware)
		}
		r.Get("/rankings", s.handleLatestRanking)
		r.Get("/rankings/{route}", s.handleRouteHistory)
		r.Get("/runs", s.handleListRuns)
	})

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RankingResponse is the JSON response for the latest ranking.
type RankingResponse struct {
	RunID     int64                `json:"run_id"`
	CreatedAt string               `json:"created_at"`
	Params    storage.RunParams    `json:"params"`
	Routes    []records.RouteScore `json:"routes"`
}

// RouteHistoryEntry is one run's score for a route.
type RouteHistoryEntry struct {
	RunID         int64    `json:"run_id"`
	CreatedAt     string   `json:"created_at"`
	PaybackMonths *float64 `json:"payback_months"`
	Punctuality   float64  `json:"punctuality_score"`
	PaybackScore  float64  `json:"payback_score"`
	CombinedScore float64  `json:"combined_score"`
}

// RunResponse describes one stored run in the run listing.
type RunResponse struct {
	ID        int64             `json:"id"`
	CreatedAt string            `json:"created_at"`
	Params    storage.RunParams `json:"params"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLatestRanking(w http.ResponseWriter, r *http.Request) {
	latest, err := s.db.LatestRun()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "no ranking runs stored")
		return
	}

	routes, err := s.db.Ranking(latest.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if routes == nil {
		routes = []records.RouteScore{}
	}

	writeJSON(w, http.StatusOK, RankingResponse{
		RunID:     latest.ID,
		CreatedAt: latest.CreatedAt.UTC().Format(time.RFC3339),
		Params:    latest.Params,
		Routes:    routes,
	})
}

func (s *Server) handleRouteHistory(w http.ResponseWriter, r *http.Request) {
	route := strings.ToUpper(chi.URLParam(r, "route"))
	if route == "" {
		writeError(w, http.StatusBadRequest, "route is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := s.db.RouteHistory(route, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no scores stored for route "+route)
		return
	}

	entries := make([]RouteHistoryEntry, 0, len(history))
	for _, h := range history {
		e := RouteHistoryEntry{
			RunID:         h.RunID,
			CreatedAt:     h.CreatedAt.UTC().Format(time.RFC3339),
			Punctuality:   h.Score.PunctualityScore,
			PaybackScore:  h.Score.PaybackScore,
			CombinedScore: h.Score.CombinedScore,
		}
		if !math.IsInf(h.Score.PaybackMonths, 1) {
			months := h.Score.PaybackMonths
			e.PaybackMonths = &months
		}
		entries = append(entries, e)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"route":   route,
		"history": entries,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, RunResponse{
			ID:        run.ID,
			CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
			Params:    run.Params,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": resp})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
