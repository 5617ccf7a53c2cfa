package storage

// Config holds connection settings for the optional database backends.
type Config struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
}

// DefaultConfig returns a configuration with default local development
// settings.
func DefaultConfig() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "route_ranker",
			User:     "route_ranker",
			Password: "route_ranker",
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "route_ranker",
			User:     "default",
			Password: "",
		},
	}
}
