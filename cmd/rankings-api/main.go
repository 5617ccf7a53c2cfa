// rankings-api serves ranking runs saved by route_ranker over HTTP.
//
// Endpoints (all under /api/v1):
//
//	GET /health            - liveness probe
//	GET /rankings          - the most recent ranking run
//	GET /rankings/{route}  - score history for one route key, e.g. JFK-LAX
//	GET /runs              - recent runs with their parameters
//
// The store is the SQLite file written by 'route_ranker rank -sqlite'.
// Optional API key auth accepts X-API-Key, a Bearer token, or ?api_key=.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"route_ranker/internal/api"
	"route_ranker/internal/storage"
)

func main() {
	dbPath := flag.String("db", envOrDefault("RANKINGS_DB", "rankings.db"), "SQLite results store path")
	port := flag.Int("port", 8082, "HTTP listen port")
	auth := flag.Bool("auth", false, "Require an API key on every request except /health")
	apiKeys := flag.String("api-keys", os.Getenv("RANKINGS_API_KEYS"), "Comma-separated API keys for -auth")
	flag.Parse()

	if *auth && strings.TrimSpace(*apiKeys) == "" {
		fmt.Fprintln(os.Stderr, "-auth requires at least one key via -api-keys or RANKINGS_API_KEYS")
		os.Exit(2)
	}

	db, err := storage.OpenResults(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open results store %s: %v", *dbPath, err)
	}
	defer db.Close()

	srv := api.NewServer(db, api.ServerConfig{
		Port:        *port,
		AuthEnabled: *auth,
		APIKeys:     strings.Split(*apiKeys, ","),
	})

	log.Printf("Rankings API listening on :%d (auth=%v, db=%s)", *port, *auth, *dbPath)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
