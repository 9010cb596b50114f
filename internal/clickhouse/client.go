package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// Client records board snapshots into ClickHouse for draft analytics
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// EnsureSchema creates the snapshot table if needed
func (c *Client) EnsureSchema(ctx context.Context) error {
	return c.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS board_snapshots (
			session_id String,
			taken_at DateTime64(3),
			category LowCardinality(String),
			rank Int32,
			name String,
			item_group String,
			cycle Nullable(Int32),
			notes String,
			status LowCardinality(String)
		)
		ENGINE = MergeTree
		ORDER BY (session_id, taken_at, category, rank)
	`)
}

// snapshotRow is one board item at the time of a snapshot
type snapshotRow struct {
	SessionID string
	TakenAt   time.Time
	Category  string
	Rank      int32
	Name      string
	Group     string
	Cycle     *int32
	Notes     string
	Status    string
}

func snapshotRows(sessionID string, takenAt time.Time, state *models.BoardState) []snapshotRow {
	var rows []snapshotRow
	for _, b := range state.Boards {
		for _, it := range b.Items {
			row := snapshotRow{
				SessionID: sessionID,
				TakenAt:   takenAt,
				Category:  b.Category,
				Rank:      int32(it.Rank),
				Name:      it.Name,
				Group:     it.Group,
				Notes:     it.Notes,
				Status:    string(it.Status),
			}
			if it.Cycle != nil {
				cycle := int32(*it.Cycle)
				row.Cycle = &cycle
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// RecordSnapshot writes every item of state as one batch. An empty state
// records nothing.
func (c *Client) RecordSnapshot(ctx context.Context, sessionID string, state *models.BoardState) error {
	rows := snapshotRows(sessionID, time.Now().UTC(), state)
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO board_snapshots")
	if err != nil {
		return fmt.Errorf("prepare snapshot batch: %w", err)
	}
	for _, r := range rows {
		if err := batch.Append(r.SessionID, r.TakenAt, r.Category, r.Rank, r.Name, r.Group, r.Cycle, r.Notes, r.Status); err != nil {
			batch.Abort()
			return fmt.Errorf("append snapshot row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send snapshot batch: %w", err)
	}
	return nil
}

// StatusCounts returns the per-status item counts of the session's latest snapshot
func (c *Client) StatusCounts(ctx context.Context, sessionID string) (map[models.Status]int, error) {
	query := `
		SELECT status, count() AS items
		FROM board_snapshots
		WHERE session_id = ?
		AND taken_at = (SELECT max(taken_at) FROM board_snapshots WHERE session_id = ?)
		GROUP BY status
	`

	rows, err := c.conn.Query(ctx, query, sessionID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n uint64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		if st, ok := models.ParseStatus(status); ok {
			counts[st] = int(n)
		}
	}
	return counts, rows.Err()
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
