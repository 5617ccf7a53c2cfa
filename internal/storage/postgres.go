package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"route_ranker/internal/records"
)

// PostgresConfig holds PostgreSQL connection settings for the input store.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool serving raw input tables.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// LoadRawFlights reads the flights table. Every column is cast to text so
// that the cleaner owns all type coercion, exactly as with file input.
func (d *PostgresDB) LoadRawFlights(ctx context.Context) ([]records.RawFlight, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT origin::text, destination::text, fl_date::text, distance::text,
			air_time::text, dep_delay::text, arr_delay::text,
			COALESCE(occupancy_rate::text, ''), cancelled::text
		FROM flights
		ORDER BY fl_date, origin, destination
	`)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()

	var raws []records.RawFlight
	for rows.Next() {
		var r records.RawFlight
		if err := rows.Scan(&r.Origin, &r.Destination, &r.FlightDate, &r.Distance,
			&r.Airtime, &r.DepDelay, &r.ArrDelay, &r.Occupancy, &r.Cancelled); err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		raws = append(raws, r)
	}
	return raws, rows.Err()
}

// LoadRawTickets reads the tickets table.
func (d *PostgresDB) LoadRawTickets(ctx context.Context) ([]records.RawTicket, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT itin_id::text, origin::text, destination::text, itin_fare::text,
			COALESCE(passengers::text, '')
		FROM tickets
		ORDER BY itin_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var raws []records.RawTicket
	for rows.Next() {
		var r records.RawTicket
		if err := rows.Scan(&r.ItineraryID, &r.Origin, &r.Destination, &r.Fare, &r.Passengers); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		raws = append(raws, r)
	}
	return raws, rows.Err()
}

// LoadRawAirports reads the airports reference table.
func (d *PostgresDB) LoadRawAirports(ctx context.Context) ([]records.RawAirport, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT iata_code::text, type::text
		FROM airports
		ORDER BY iata_code
	`)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer rows.Close()

	var raws []records.RawAirport
	for rows.Next() {
		var r records.RawAirport
		if err := rows.Scan(&r.IATA, &r.Size); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		raws = append(raws, r)
	}
	return raws, rows.Err()
}
