package dal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDAL implements BoardDAL on top of SQLite
type SQLiteDAL struct {
	*sessionStore
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer. dbPath ":memory:"
// keeps the session for the life of the process only.
func NewSQLiteDAL(dbPath, sessionID string, defaults []string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s, err := newSessionStore(defaults, &sqlStore{db: db, sessionID: sessionID, rebind: questionMarks})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDAL{sessionStore: s, db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS board_categories (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
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
		PRIMARY KEY (session_id, position)
	);

	CREATE TABLE IF NOT EXISTS watchlist_order (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (session_id, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *SQLiteDAL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
