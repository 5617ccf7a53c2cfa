package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"route_ranker/internal/records"
)

// ClickHouseConfig holds ClickHouse connection settings for the analytics
// export.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// AnalyticsDB wraps a ClickHouse connection for exporting enriched legs
// and route scores.
type AnalyticsDB struct {
	conn driver.Conn
}

// OpenAnalytics opens a connection to ClickHouse.
func OpenAnalytics(ctx context.Context, cfg ClickHouseConfig) (*AnalyticsDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &AnalyticsDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *AnalyticsDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *AnalyticsDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS enriched_legs (
			run_id          UInt64,
			route           LowCardinality(String),
			origin          LowCardinality(String),
			destination     LowCardinality(String),
			flight_date     Date,
			distance        Float64,
			air_time        Float64,
			dep_delay       Float64,
			arr_delay       Float64,
			occupancy       Float64,
			origin_size     LowCardinality(String),
			dest_size       LowCardinality(String),
			avg_fare        Nullable(Float64),
			profit          Float64,
			exported_at     DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(flight_date)
		ORDER BY (route, flight_date)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS route_scores (
			run_id              UInt64,
			route               LowCardinality(String),
			total_profit        Float64,
			legs                UInt32,
			punctuality_score   Float64,
			payback_months      Nullable(Float64),
			payback_score       Float64,
			combined_score      Float64,
			rank                UInt32,
			exported_at         DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(exported_at)
		ORDER BY (run_id, rank)`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// InsertEnrichedLegs batch-inserts the enriched leg table for a run.
func (d *AnalyticsDB) InsertEnrichedLegs(ctx context.Context, runID int64, legs []records.EnrichedLeg) error {
	if len(legs) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO enriched_legs (run_id, route, origin, destination, flight_date,
			distance, air_time, dep_delay, arr_delay, occupancy,
			origin_size, dest_size, avg_fare, profit)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, leg := range legs {
		if err := batch.Append(
			uint64(runID), leg.Route, leg.Origin, leg.Destination, leg.FlightDate,
			leg.Distance, leg.Airtime, leg.DepDelay, leg.ArrDelay, leg.Occupancy,
			string(leg.OriginSize), string(leg.DestinationSize), leg.AvgFare, leg.Profit,
		); err != nil {
			return fmt.Errorf("append leg: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// InsertRouteScores batch-inserts the ranked route scores for a run. The
// slice order defines the rank column; infinite payback becomes NULL.
func (d *AnalyticsDB) InsertRouteScores(ctx context.Context, runID int64, ranked []records.RouteScore) error {
	if len(ranked) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO route_scores (run_id, route, total_profit, legs,
			punctuality_score, payback_months, payback_score, combined_score, rank)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, rs := range ranked {
		var months *float64
		if !math.IsInf(rs.PaybackMonths, 1) {
			m := rs.PaybackMonths
			months = &m
		}
		if err := batch.Append(
			uint64(runID), rs.Route, rs.TotalProfit, uint32(rs.Legs),
			rs.PunctualityScore, months, rs.PaybackScore, rs.CombinedScore, uint32(i+1),
		); err != nil {
			return fmt.Errorf("append route score: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
