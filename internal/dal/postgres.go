package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// PostgresDAL implements BoardDAL on top of PostgreSQL
type PostgresDAL struct {
	*sessionStore
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString, sessionID string, defaults []string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG default max_connections is 100
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	// Recycle connections to handle failovers gracefully
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Retry for Kubernetes DNS propagation delays
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}
		logger.Warn("Postgres not reachable yet", "attempt", i+1, "error", lastErr)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	if err := initPostgresSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s, err := newSessionStore(defaults, &sqlStore{db: db, sessionID: sessionID, rebind: dollarPlaceholders})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresDAL{sessionStore: s, db: db}, nil
}

func initPostgresSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS board_categories (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, name)
	);

	CREATE TABLE IF NOT EXISTS board_items (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		rank INTEGER NOT NULL,
		name TEXT NOT NULL,
		item_group TEXT NOT NULL DEFAULT '',
		cycle INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, position)
	);

	CREATE TABLE IF NOT EXISTS watchlist_order (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (session_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_board_items_category ON board_items(session_id, category);
	CREATE INDEX IF NOT EXISTS idx_board_items_status ON board_items(status);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (p *PostgresDAL) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
