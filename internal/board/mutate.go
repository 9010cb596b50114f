package board

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// BulkDelimiter separates the fields of one bulk-add line
const BulkDelimiter = "|"

// Reindex returns a copy of items with rank set to 1..N in sequence order
func Reindex(items []models.Item) []models.Item {
	out := cloneItems(items)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// AddItem appends one item to the category's board. Status is forced to
// Available and text fields are trimmed. Unknown categories are registered;
// a blank category is rejected.
func (s *Store) AddItem(category string, in models.Item) (models.Board, error) {
	if NormalizeCategory(category) == "" {
		return models.Board{}, ErrEmptyCategory
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Board{}, ErrEmptyName
	}

	item := models.Item{
		Name:   name,
		Group:  strings.TrimSpace(in.Group),
		Notes:  strings.TrimSpace(in.Notes),
		Status: models.StatusAvailable,
	}
	if in.Cycle != nil && *in.Cycle >= 0 {
		item.Cycle = models.IntPtr(*in.Cycle)
	}

	key := s.ensure(category)
	s.boards[key] = Reindex(append(s.boards[key], item))
	return s.Board(key)
}

// ParseBulkLine parses "name|group|cycle|notes". Trailing fields are
// optional and anything past the fourth is ignored. A cycle that is not an
// integer is left unset. ok is false when the name is blank.
func ParseBulkLine(line string) (models.Item, bool) {
	parts := strings.Split(line, BulkDelimiter)
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}

	item := models.Item{
		Name:  field(0),
		Group: field(1),
		Notes: field(3),
	}
	if c := field(2); c != "" {
		item.Cycle = parseCycle(c)
	}
	return item, item.Name != ""
}

// BulkAdd adds one item per non-blank line of text, in order, and returns
// how many were added. Lines with a blank name are skipped.
func (s *Store) BulkAdd(category, text string) (int, error) {
	if NormalizeCategory(category) == "" {
		return 0, ErrEmptyCategory
	}
	added := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item, ok := ParseBulkLine(line)
		if !ok {
			continue
		}
		if _, err := s.AddItem(category, item); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// selection validates 0-based positions against a board of length n and
// returns them deduplicated and sorted.
func selection(indices []int, n int) ([]int, error) {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %d (board has %d items)", ErrIndexOutOfRange, i, n)
		}
		if !slices.Contains(out, i) {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out, nil
}

// RestatusSelected sets the status of the items at the given positions and
// returns how many were selected. Rank order is unchanged.
func (s *Store) RestatusSelected(category string, indices []int, status models.Status) (int, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	st, ok := models.ParseStatus(string(status))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	key, ok := s.lookup(category)
	if !ok {
		return 0, ErrUnknownCategory
	}

	items := s.boards[key]
	sel, err := selection(indices, len(items))
	if err != nil {
		return 0, err
	}

	updated := cloneItems(items)
	for _, i := range sel {
		updated[i].Status = st
	}
	s.boards[key] = Reindex(updated)
	return len(sel), nil
}

// RemoveSelected deletes the items at the given positions and re-derives
// rank over what remains. It returns how many were removed.
func (s *Store) RemoveSelected(category string, indices []int) (int, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	key, ok := s.lookup(category)
	if !ok {
		return 0, ErrUnknownCategory
	}

	items := s.boards[key]
	sel, err := selection(indices, len(items))
	if err != nil {
		return 0, err
	}

	kept := make([]models.Item, 0, len(items)-len(sel))
	for i, it := range items {
		if _, found := slices.BinarySearch(sel, i); !found {
			kept = append(kept, it)
		}
	}
	s.boards[key] = Reindex(kept)
	return len(sel), nil
}

// ResetToDefaults replaces the whole store with the default categories,
// all empty except the sample board. The custom watchlist order is cleared.
func (s *Store) ResetToDefaults() {
	s.categories = slices.Clone(s.defaults)
	s.boards = make(map[string][]models.Item, len(s.defaults))
	for _, c := range s.defaults {
		s.boards[c] = []models.Item{}
	}
	if _, ok := s.boards[SampleCategory]; ok {
		s.boards[SampleCategory] = sampleItems()
	}
	s.watchlistOrder = nil
}

// ClearAll empties every board and keeps the category names
func (s *Store) ClearAll() {
	for _, c := range s.categories {
		s.boards[c] = []models.Item{}
	}
}

// Reindex re-derives rank for one category. It is idempotent.
func (s *Store) Reindex(category string) error {
	key, ok := s.lookup(category)
	if !ok {
		return ErrUnknownCategory
	}
	s.boards[key] = Reindex(s.boards[key])
	return nil
}

// ReindexAll re-derives rank on every board
func (s *Store) ReindexAll() {
	for _, c := range s.categories {
		s.boards[c] = Reindex(s.boards[c])
	}
}
