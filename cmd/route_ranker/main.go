// Command-line entry point for the route investment ranker.
//
// The rank subcommand runs the full pipeline for one observation period:
// load raw flight, ticket, and airport tables (CSV, XLSX, or Postgres),
// clean them, join fares and airport metadata onto each leg, score every
// route on punctuality and capital payback, and emit the top N routes.
//
// Outputs are composable: a CSV/JSON table to a file or stdout, an XLSX
// report, a SQLite results store (served by rankings-api), a ClickHouse
// analytics export, and a NATS subject for downstream consumers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"route_ranker/internal/cleaner"
	"route_ranker/internal/enrichment"
	"route_ranker/internal/export"
	"route_ranker/internal/loader"
	"route_ranker/internal/recommend"
	"route_ranker/internal/records"
	"route_ranker/internal/scoring"
	"route_ranker/internal/storage"
)

// Stats counts rows through every pipeline stage, printed with -stats.
type Stats struct {
	RawFlights    int
	RawTickets    int
	RawAirports   int
	CleanFlights  int
	CleanTickets  int
	CleanAirports int
	DroppedRows   int
	EnrichedLegs  int
	RankedRoutes  int
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "route_ranker - rank routes for aircraft investment")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  route_ranker rank -flights flights.csv -tickets tickets.csv -airports airports.csv [options]")
	fmt.Fprintln(w, "  route_ranker rank -from-postgres [-pg-host ...] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Inputs are .csv or .xlsx files, or Postgres tables with -from-postgres.")
	fmt.Fprintln(w, "Run 'route_ranker rank -h' for the full option list.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "rank":
		runRank(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)

	// Inputs.
	flightsPath := fs.String("flights", "", "Flights table (.csv or .xlsx)")
	ticketsPath := fs.String("tickets", "", "Tickets table (.csv or .xlsx)")
	airportsPath := fs.String("airports", "", "Airports table (.csv or .xlsx)")
	fromPostgres := fs.Bool("from-postgres", false, "Load input tables from Postgres instead of files")
	defaults := storage.DefaultConfig()
	pgHost := fs.String("pg-host", envOrDefault("POSTGRES_HOST", defaults.Postgres.Host), "PostgreSQL host")
	pgPort := fs.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", defaults.Postgres.Port), "PostgreSQL port")
	pgUser := fs.String("pg-user", envOrDefault("POSTGRES_USER", defaults.Postgres.User), "PostgreSQL user")
	pgPassword := fs.String("pg-password", envOrDefault("POSTGRES_PASSWORD", defaults.Postgres.Password), "PostgreSQL password")
	pgDB := fs.String("pg-database", envOrDefault("POSTGRES_DATABASE", defaults.Postgres.Database), "PostgreSQL database")

	// Scoring parameters.
	n := fs.Int("n", 5, "Number of routes to recommend")
	threshold := fs.Float64("threshold", 15.0, "Free delay allowance in minutes")
	penaltyMinutes := fs.Float64("penalty-minutes", 180.0, "Excess delay minutes that zero the punctuality score")
	investment := fs.Float64("investment", 90_000_000, "Investment per route in dollars")
	months := fs.Float64("months", 3.0, "Observed profit period in months")
	wPunct := fs.Float64("w-punct", 0.5, "Weight of the punctuality score")
	wPayback := fs.Float64("w-payback", 0.5, "Weight of the payback score")
	seats := fs.Float64("seats", 200, "Seats per leg in the profit model")
	costPerMile := fs.Float64("cost-per-mile", 8.0, "Operating cost per mile in the profit model")

	// Outputs.
	outPath := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "", "Output format: csv or json (default: by extension, csv on stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	xlsxReport := fs.String("xlsx-report", "", "Write an XLSX ranking report to this path")
	sqlitePath := fs.String("sqlite", "", "Save the run to this SQLite results store")
	toClickHouse := fs.Bool("clickhouse", false, "Export enriched legs and scores to ClickHouse")
	chHost := fs.String("ch-host", envOrDefault("CLICKHOUSE_HOST", defaults.ClickHouse.Host), "ClickHouse host")
	chPort := fs.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", defaults.ClickHouse.Port), "ClickHouse port")
	chUser := fs.String("ch-user", envOrDefault("CLICKHOUSE_USER", defaults.ClickHouse.User), "ClickHouse user")
	chPassword := fs.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", defaults.ClickHouse.Password), "ClickHouse password")
	chDB := fs.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", defaults.ClickHouse.Database), "ClickHouse database")
	publishURL := fs.String("publish", "", "Publish the ranking to this NATS URL")
	subject := fs.String("subject", "routes.ranking", "NATS subject for -publish")
	showStats := fs.Bool("stats", false, "Print pipeline counters to stderr")

	_ = fs.Parse(args)

	ctx := context.Background()
	st := &Stats{}

	// 1. Load raw tables.
	rawFlights, rawTickets, rawAirports, err := loadInputs(ctx, inputConfig{
		flightsPath:  *flightsPath,
		ticketsPath:  *ticketsPath,
		airportsPath: *airportsPath,
		fromPostgres: *fromPostgres,
		pg: storage.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			Database: *pgDB,
			User:     *pgUser,
			Password: *pgPassword,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading inputs: %v\n", err)
		os.Exit(1)
	}
	st.RawFlights = len(rawFlights)
	st.RawTickets = len(rawTickets)
	st.RawAirports = len(rawAirports)

	// 2. Clean.
	flights, flightStats := cleaner.Flights(rawFlights)
	tickets, ticketStats := cleaner.Tickets(rawTickets)
	airports, airportStats := cleaner.Airports(rawAirports)
	st.CleanFlights = len(flights)
	st.CleanTickets = len(tickets)
	st.CleanAirports = len(airports)
	st.DroppedRows = flightStats.Dropped() + ticketStats.Dropped() + airportStats.Dropped()

	if len(flights) == 0 {
		fmt.Fprintln(os.Stderr, "No flights survived cleaning; ranking is empty.")
	}

	// 3. Enrich and join.
	enrichOpts := enrichment.DefaultOptions()
	enrichOpts.SeatsPerLeg = *seats
	enrichOpts.CostPerMile = *costPerMile
	enriched := enrichment.EnrichAndJoin(flights, tickets, airports, enrichOpts)
	st.EnrichedLegs = len(enriched)

	// 4. Score.
	punctOpts := scoring.PunctualityOptions{
		ThresholdMinutes:       *threshold,
		ReferenceExcessMinutes: *penaltyMinutes,
	}
	punctuality, err := scoring.Punctuality(enriched, punctOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scoring punctuality: %v\n", err)
		os.Exit(1)
	}

	paybackOpts := scoring.PaybackOptions{
		InvestmentPerRoute: *investment,
		PeriodMonths:       *months,
	}
	payback, err := scoring.PaybackByRoute(enriched, paybackOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scoring payback: %v\n", err)
		os.Exit(1)
	}

	// 5. Rank.
	ranked, err := recommend.Rank(punctuality, payback, recommend.Options{
		N:                 *n,
		WeightPunctuality: *wPunct,
		WeightPayback:     *wPayback,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ranking: %v\n", err)
		os.Exit(1)
	}
	st.RankedRoutes = len(ranked)

	// 6. Emit.
	if err := writeTable(*outPath, *format, *pretty, ranked); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *xlsxReport != "" {
		if err := export.WriteXLSXReport(*xlsxReport, ranked); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing XLSX report: %v\n", err)
			os.Exit(1)
		}
	}

	var runID int64
	if *sqlitePath != "" {
		runID, err = saveRun(*sqlitePath, storage.RunParams{
			ThresholdMinutes:       *threshold,
			ReferenceExcessMinutes: *penaltyMinutes,
			InvestmentPerRoute:     *investment,
			PeriodMonths:           *months,
			WeightPunctuality:      *wPunct,
			WeightPayback:          *wPayback,
			N:                      *n,
		}, ranked)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving run: %v\n", err)
			os.Exit(1)
		}
	}

	if *toClickHouse {
		err := exportAnalytics(ctx, storage.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDB,
			User:     *chUser,
			Password: *chPassword,
		}, runID, enriched, ranked)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting to ClickHouse: %v\n", err)
			os.Exit(1)
		}
	}

	if *publishURL != "" {
		if err := export.PublishRanking(*publishURL, *subject, runID, ranked); err != nil {
			fmt.Fprintf(os.Stderr, "Error publishing ranking: %v\n", err)
			os.Exit(1)
		}
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: raw(flights=%d tickets=%d airports=%d) clean(flights=%d tickets=%d airports=%d) dropped=%d enriched=%d ranked=%d\n",
			st.RawFlights, st.RawTickets, st.RawAirports,
			st.CleanFlights, st.CleanTickets, st.CleanAirports,
			st.DroppedRows, st.EnrichedLegs, st.RankedRoutes,
		)
	}
}

type inputConfig struct {
	flightsPath  string
	ticketsPath  string
	airportsPath string
	fromPostgres bool
	pg           storage.PostgresConfig
}

func loadInputs(ctx context.Context, cfg inputConfig) ([]records.RawFlight, []records.RawTicket, []records.RawAirport, error) {
	if cfg.fromPostgres {
		pg, err := storage.OpenPostgres(ctx, cfg.pg)
		if err != nil {
			return nil, nil, nil, err
		}
		defer pg.Close()

		flights, err := pg.LoadRawFlights(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		tickets, err := pg.LoadRawTickets(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		airports, err := pg.LoadRawAirports(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return flights, tickets, airports, nil
	}

	if cfg.flightsPath == "" || cfg.ticketsPath == "" || cfg.airportsPath == "" {
		return nil, nil, nil, fmt.Errorf("need -flights, -tickets, and -airports (or -from-postgres)")
	}

	flights, err := loader.Flights(cfg.flightsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	tickets, err := loader.Tickets(cfg.ticketsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	airports, err := loader.Airports(cfg.airportsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return flights, tickets, airports, nil
}

func writeTable(path, format string, pretty bool, ranked []records.RouteScore) error {
	if format == "" {
		format = "csv"
		if strings.HasSuffix(strings.ToLower(path), ".json") {
			format = "json"
		}
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		return export.WriteCSV(w, ranked)
	case "json":
		return export.WriteJSON(w, ranked, pretty)
	}
	return fmt.Errorf("unknown output format %q (want csv or json)", format)
}

func saveRun(path string, params storage.RunParams, ranked []records.RouteScore) (int64, error) {
	db, err := storage.OpenResults(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.SaveRun(params, ranked)
}

func exportAnalytics(ctx context.Context, cfg storage.ClickHouseConfig, runID int64, enriched []records.EnrichedLeg, ranked []records.RouteScore) error {
	ch, err := storage.OpenAnalytics(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.CreateSchema(ctx); err != nil {
		return err
	}
	if err := ch.InsertEnrichedLegs(ctx, runID, enriched); err != nil {
		return err
	}
	return ch.InsertRouteScores(ctx, runID, ranked)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
