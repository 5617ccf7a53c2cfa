// Package storage persists ranking runs and exports pipeline output to
// analytical backends. SQLite holds the local results store; Postgres is
// an optional input source, ClickHouse an optional analytics sink.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"route_ranker/internal/records"
)

// ResultsDB wraps a SQLite database holding ranking runs.
type ResultsDB struct {
	db *sql.DB
}

// OpenResults opens or creates the SQLite results store at the given path.
func OpenResults(path string) (*ResultsDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode so the rankings API can read while a run is being saved.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createResultsSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &ResultsDB{db: db}, nil
}

// Close closes the database connection.
func (d *ResultsDB) Close() error {
	return d.db.Close()
}

func createResultsSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		params TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS route_scores (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		route TEXT NOT NULL,
		total_profit REAL NOT NULL,
		legs INTEGER NOT NULL,
		punctuality_score REAL NOT NULL,
		payback_months REAL,            -- NULL encodes never-breaks-even
		payback_score REAL NOT NULL,
		combined_score REAL NOT NULL,
		PRIMARY KEY (run_id, route)
	);

	CREATE INDEX IF NOT EXISTS idx_route_scores_route ON route_scores(route);
	CREATE INDEX IF NOT EXISTS idx_route_scores_rank ON route_scores(run_id, rank);
	`
	_, err := db.Exec(schema)
	return err
}

// RunParams records the parameters a ranking run was produced with.
type RunParams struct {
	ThresholdMinutes       float64 `json:"threshold_minutes"`
	ReferenceExcessMinutes float64 `json:"reference_excess_minutes"`
	InvestmentPerRoute     float64 `json:"investment_per_route"`
	PeriodMonths           float64 `json:"period_months"`
	WeightPunctuality      float64 `json:"weight_punctuality"`
	WeightPayback          float64 `json:"weight_payback"`
	N                      int     `json:"n"`
}

// RunInfo describes one stored ranking run.
type RunInfo struct {
	ID        int64
	CreatedAt time.Time
	Params    RunParams
}

// SaveRun stores a ranked result set as a new run and returns the run ID.
// The slice order defines the rank column.
func (d *ResultsDB) SaveRun(params RunParams, ranked []records.RouteScore) (int64, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("marshal params: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO runs (params) VALUES (?)`, string(paramsJSON))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO route_scores (run_id, rank, route, total_profit, legs, punctuality_score, payback_months, payback_score, combined_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rs := range ranked {
		var months interface{}
		if !math.IsInf(rs.PaybackMonths, 1) {
			months = rs.PaybackMonths
		}
		if _, err := stmt.Exec(runID, i+1, rs.Route, rs.TotalProfit, rs.Legs,
			rs.PunctualityScore, months, rs.PaybackScore, rs.CombinedScore); err != nil {
			return 0, fmt.Errorf("insert route score %s: %w", rs.Route, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent run, or nil when the store is empty.
func (d *ResultsDB) LatestRun() (*RunInfo, error) {
	row := d.db.QueryRow(`SELECT id, created_at, params FROM runs ORDER BY id DESC LIMIT 1`)
	info, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return info, err
}

// ListRuns returns stored runs, newest first.
func (d *ResultsDB) ListRuns(limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`SELECT id, created_at, params FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *info)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunInfo, error) {
	var info RunInfo
	var created, paramsJSON string
	if err := row.Scan(&info.ID, &created, &paramsJSON); err != nil {
		return nil, err
	}
	var err error
	info.CreatedAt, err = time.Parse("2006-01-02 15:04:05", created)
	if err != nil {
		return nil, fmt.Errorf("parse run created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &info.Params); err != nil {
		return nil, fmt.Errorf("unmarshal run params: %w", err)
	}
	return &info, nil
}

// Ranking returns the ranked routes of one run, in rank order.
func (d *ResultsDB) Ranking(runID int64) ([]records.RouteScore, error) {
	rows, err := d.db.Query(`
		SELECT route, total_profit, legs, punctuality_score, payback_months, payback_score, combined_score
		FROM route_scores WHERE run_id = ? ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ranked []records.RouteScore
	for rows.Next() {
		rs, err := scanRouteScore(rows)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, rs)
	}
	return ranked, rows.Err()
}

// RouteHistory returns a route's scores across runs, newest run first.
func (d *ResultsDB) RouteHistory(route string, limit int) ([]RouteRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`
		SELECT s.run_id, r.created_at, s.route, s.total_profit, s.legs,
			s.punctuality_score, s.payback_months, s.payback_score, s.combined_score
		FROM route_scores s JOIN runs r ON r.id = s.run_id
		WHERE s.route = ? ORDER BY s.run_id DESC LIMIT ?
	`, route, limit)
	if err != nil {
		return nil, fmt.Errorf("query route history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []RouteRun
	for rows.Next() {
		var rr RouteRun
		var created string
		var months sql.NullFloat64
		err := rows.Scan(&rr.RunID, &created, &rr.Score.Route, &rr.Score.TotalProfit, &rr.Score.Legs,
			&rr.Score.PunctualityScore, &months, &rr.Score.PaybackScore, &rr.Score.CombinedScore)
		if err != nil {
			return nil, fmt.Errorf("scan route history: %w", err)
		}
		rr.CreatedAt, err = time.Parse("2006-01-02 15:04:05", created)
		if err != nil {
			return nil, fmt.Errorf("parse run created_at: %w", err)
		}
		rr.Score.PaybackMonths = nullToInf(months)
		history = append(history, rr)
	}
	return history, rows.Err()
}

// RouteRun is one route's score within one stored run.
type RouteRun struct {
	RunID     int64
	CreatedAt time.Time
	Score     records.RouteScore
}

func scanRouteScore(rows *sql.Rows) (records.RouteScore, error) {
	var rs records.RouteScore
	var months sql.NullFloat64
	err := rows.Scan(&rs.Route, &rs.TotalProfit, &rs.Legs,
		&rs.PunctualityScore, &months, &rs.PaybackScore, &rs.CombinedScore)
	if err != nil {
		return rs, fmt.Errorf("scan route score: %w", err)
	}
	rs.PaybackMonths = nullToInf(months)
	return rs, nil
}

func nullToInf(months sql.NullFloat64) float64 {
	if months.Valid {
		return months.Float64
	}
	return math.Inf(1)
}
