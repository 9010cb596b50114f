// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
)

// Database drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting the service reads at startup
type Config struct {
	Environment string
	Port        string
	GRPCPort    string

	DBDriver    string
	SQLiteFile  string
	DatabaseURL string
	SessionID   string

	NATSURL     string
	NATSSubject string

	ClickHouseAddr     string
	ClickHouseDB       string
	ClickHouseUser     string
	ClickHousePassword string
	SnapshotInterval   time.Duration

	DefaultCategories []string

	LogLevel  string
	LogFormat string
}

// Development reports whether the service runs with local stand-ins
// (embedded NATS, mock analytics) instead of external infrastructure
func (c *Config) Development() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv
func LoadFrom(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Environment: get("ENVIRONMENT", "development"),
		Port:        get("PORT", "3000"),
		GRPCPort:    get("GRPC_PORT", "50051"),

		DBDriver:    strings.ToLower(get("DB_DRIVER", DriverMemory)),
		SQLiteFile:  get("SQLITE_FILE", ":memory:"),
		DatabaseURL: get("DATABASE_URL", ""),
		SessionID:   get("SESSION_ID", ""),

		NATSURL:     get("NATS_URL", "nats://localhost:4222"),
		NATSSubject: get("NATS_SUBJECT", "board.events"),

		ClickHouseAddr:     get("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:       get("CLICKHOUSE_DB", "default"),
		ClickHouseUser:     get("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getenv("CLICKHOUSE_PASSWORD"),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
	}

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	interval, err := time.ParseDuration(get("SNAPSHOT_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: must be positive, got %s", interval)
	}
	cfg.SnapshotInterval = interval

	cfg.DefaultCategories = board.DefaultCategories
	if v := get("DEFAULT_CATEGORIES", ""); v != "" {
		var cats []string
		for _, c := range strings.Split(v, ",") {
			if c = board.NormalizeCategory(c); c != "" {
				cats = append(cats, c)
			}
		}
		if len(cats) > 0 {
			cfg.DefaultCategories = cats
		}
	}

	switch cfg.DBDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" && !cfg.Development() {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", cfg.DBDriver)
	}

	return cfg, nil
}
