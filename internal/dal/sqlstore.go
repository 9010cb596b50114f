package dal

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// sqlStore persists one session's boards into the board_* tables. The
// same statements serve SQLite and Postgres; rebind rewrites the ?
// placeholders for drivers that need numbered ones.
type sqlStore struct {
	db        *sql.DB
	sessionID string
	rebind    func(string) string
}

func questionMarks(q string) string { return q }

// dollarPlaceholders rewrites ? placeholders as $1, $2, ...
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) load() (*models.BoardState, error) {
	state := &models.BoardState{}

	rows, err := s.db.Query(s.rebind(`
		SELECT name FROM board_categories WHERE session_id = ? ORDER BY position
	`), s.sessionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		state.Categories = append(state.Categories, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(state.Categories) == 0 {
		return nil, nil
	}

	byCategory := make(map[string][]models.Item, len(state.Categories))
	itemRows, err := s.db.Query(s.rebind(`
		SELECT category, rank, name, item_group, cycle, notes, status
		FROM board_items WHERE session_id = ? ORDER BY position
	`), s.sessionID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			category string
			it       models.Item
			cycle    sql.NullInt64
			status   string
		)
		if err := itemRows.Scan(&category, &it.Rank, &it.Name, &it.Group, &cycle, &it.Notes, &status); err != nil {
			return nil, err
		}
		if cycle.Valid {
			it.Cycle = models.IntPtr(int(cycle.Int64))
		}
		it.Status, _ = models.ParseStatus(status)
		byCategory[category] = append(byCategory[category], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for _, c := range state.Categories {
		items := byCategory[c]
		if items == nil {
			items = []models.Item{}
		}
		state.Boards = append(state.Boards, models.Board{Category: c, Items: items})
	}

	orderRows, err := s.db.Query(s.rebind(`
		SELECT name FROM watchlist_order WHERE session_id = ? ORDER BY position
	`), s.sessionID)
	if err != nil {
		return nil, err
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var name string
		if err := orderRows.Scan(&name); err != nil {
			return nil, err
		}
		state.WatchlistOrder = append(state.WatchlistOrder, name)
	}
	return state, orderRows.Err()
}

// save replaces everything stored for the session in one transaction
func (s *sqlStore) save(state *models.BoardState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"board_items", "board_categories", "watchlist_order"} {
		if _, err := tx.Exec(s.rebind("DELETE FROM "+table+" WHERE session_id = ?"), s.sessionID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range state.Categories {
		if _, err := tx.Exec(s.rebind(`
			INSERT INTO board_categories (session_id, position, name) VALUES (?, ?, ?)
		`), s.sessionID, i, c); err != nil {
			return fmt.Errorf("insert category %q: %w", c, err)
		}
	}

	insertItem, err := tx.Prepare(s.rebind(`
		INSERT INTO board_items (session_id, position, category, rank, name, item_group, cycle, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return err
	}
	defer insertItem.Close()

	pos := 0
	for _, b := range state.Boards {
		for _, it := range b.Items {
			var cycle sql.NullInt64
			if it.Cycle != nil {
				cycle = sql.NullInt64{Int64: int64(*it.Cycle), Valid: true}
			}
			if _, err := insertItem.Exec(s.sessionID, pos, b.Category, it.Rank, it.Name, it.Group, cycle, it.Notes, string(it.Status)); err != nil {
				return fmt.Errorf("insert item %q: %w", it.Name, err)
			}
			pos++
		}
	}

	for i, name := range state.WatchlistOrder {
		if _, err := tx.Exec(s.rebind(`
			INSERT INTO watchlist_order (session_id, position, name) VALUES (?, ?, ?)
		`), s.sessionID, i, name); err != nil {
			return fmt.Errorf("insert watchlist order: %w", err)
		}
	}

	return tx.Commit()
}

func (s *sqlStore) close() error {
	return s.db.Close()
}
