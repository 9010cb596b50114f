package board

import (
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// ReconcileResult counts how an edited snapshot matched the previous board
type ReconcileResult struct {
	Kept     int `json:"kept"`
	Dropped  int `json:"dropped"`
	Inserted int `json:"inserted"`
}

// Fingerprint is the identity key of an item during edit reconciliation.
// Rank and status are excluded so that moving or restatusing a row keeps
// its identity. Distinct rows sharing name, group, notes and cycle collide.
func Fingerprint(it models.Item) string {
	cycle := ""
	if it.Cycle != nil {
		cycle = strconv.Itoa(*it.Cycle)
	}
	return strings.Join([]string{it.Name, it.Group, it.Notes, cycle}, "\x1f")
}

// ReconcileEdit replaces a board with an edited snapshot of it. The edited
// rows, in their given order, become the board; previous rows whose
// fingerprint no longer appears are dropped. A row that omits the status
// column inherits the status of the previous row it matches.
func (s *Store) ReconcileEdit(category string, edited []Row) (ReconcileResult, error) {
	if NormalizeCategory(category) == "" {
		return ReconcileResult{}, ErrEmptyCategory
	}
	key := s.ensure(category)
	old := s.boards[key]

	pool := make(map[string][]int, len(old))
	for i, it := range old {
		fp := Fingerprint(it)
		pool[fp] = append(pool[fp], i)
	}

	var res ReconcileResult
	items := make([]models.Item, 0, len(edited))
	for _, raw := range edited {
		row := raw.canonical()
		item := NormalizeRow(row)

		fp := Fingerprint(item)
		if matches := pool[fp]; len(matches) > 0 {
			prev := old[matches[0]]
			pool[fp] = matches[1:]
			if _, ok := row[ColStatus]; !ok {
				item.Status = prev.Status
			}
			res.Kept++
		} else {
			res.Inserted++
		}
		items = append(items, item)
	}
	res.Dropped = len(old) - res.Kept

	s.boards[key] = Reindex(items)
	return res, nil
}
