package board

import (
	"slices"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// DefaultCategories is the category set a fresh store starts with
var DefaultCategories = []string{"QB", "RB", "WR", "TE", "FLEX", "DST", "K"}

// SampleCategory is pre-seeded with sampleItems on reset
const SampleCategory = "RB"

func sampleItems() []models.Item {
	return []models.Item{
		{Rank: 1, Name: "Christian McCaffrey", Group: "SF", Cycle: models.IntPtr(9), Notes: "Elite talent", Status: models.StatusAvailable},
		{Rank: 2, Name: "Breece Hall", Group: "NYJ", Cycle: models.IntPtr(12), Notes: "Breakout year", Status: models.StatusAvailable},
		{Rank: 3, Name: "Bijan Robinson", Group: "ATL", Cycle: models.IntPtr(11), Notes: "Rookie stud", Status: models.StatusAvailable},
	}
}

// Store maps category names to boards and keeps the category display order.
// A Store is not safe for concurrent use; callers serialize access.
type Store struct {
	defaults       []string
	categories     []string
	boards         map[string][]models.Item
	watchlistOrder []string
}

// NewStore creates a store holding the default categories. An empty
// defaults list falls back to DefaultCategories.
func NewStore(defaults []string) *Store {
	s := &Store{defaults: normalizeCategoryList(defaults)}
	if len(s.defaults) == 0 {
		s.defaults = normalizeCategoryList(DefaultCategories)
	}
	s.ResetToDefaults()
	return s
}

// NewStoreFromState rebuilds a store from a snapshot. Categories referenced
// by a board but missing from the category list are appended.
func NewStoreFromState(state *models.BoardState, defaults []string) *Store {
	s := NewStore(defaults)
	s.categories = nil
	s.boards = make(map[string][]models.Item)
	s.watchlistOrder = slices.Clone(state.WatchlistOrder)

	for _, c := range state.Categories {
		s.ensure(c)
	}
	for _, b := range state.Boards {
		key := s.ensure(b.Category)
		s.boards[key] = Reindex(b.Items)
	}
	return s
}

// NormalizeCategory trims and upper-cases a category name
func NormalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func normalizeCategoryList(names []string) []string {
	var out []string
	for _, n := range names {
		n = NormalizeCategory(n)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Defaults returns the categories restored by ResetToDefaults
func (s *Store) Defaults() []string {
	return slices.Clone(s.defaults)
}

// Categories returns the known category names in display order
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Has reports whether the category is known
func (s *Store) Has(category string) bool {
	_, ok := s.boards[NormalizeCategory(category)]
	return ok
}

// Board returns a copy of one category's board
func (s *Store) Board(category string) (models.Board, error) {
	key := NormalizeCategory(category)
	items, ok := s.boards[key]
	if !ok {
		return models.Board{}, ErrUnknownCategory
	}
	return models.Board{Category: key, Items: cloneItems(items)}, nil
}

// Boards returns copies of every board in category order
func (s *Store) Boards() []models.Board {
	out := make([]models.Board, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, models.Board{Category: c, Items: cloneItems(s.boards[c])})
	}
	return out
}

// WatchlistOrder returns the persisted custom watchlist order
func (s *Store) WatchlistOrder() []string {
	return slices.Clone(s.watchlistOrder)
}

// Len returns the number of items across all boards
func (s *Store) Len() int {
	n := 0
	for _, items := range s.boards {
		n += len(items)
	}
	return n
}

// AddCategory registers a new, empty category. It returns the normalized
// name and whether the category was newly added.
func (s *Store) AddCategory(name string) (string, bool, error) {
	key := NormalizeCategory(name)
	if key == "" {
		return "", false, ErrEmptyCategory
	}
	if _, ok := s.boards[key]; ok {
		return key, false, nil
	}
	s.ensure(key)
	return key, true, nil
}

// ensure registers the category if needed and returns its key.
// Blank names are allowed here so that imported rows without a category
// keep their own board; editing operations reject them before calling ensure.
func (s *Store) ensure(category string) string {
	key := NormalizeCategory(category)
	if _, ok := s.boards[key]; !ok {
		s.boards[key] = []models.Item{}
		s.categories = append(s.categories, key)
	}
	return key
}

func (s *Store) lookup(category string) (string, bool) {
	key := NormalizeCategory(category)
	_, ok := s.boards[key]
	return key, ok
}

// State returns a deep copy of the store contents
func (s *Store) State() *models.BoardState {
	return &models.BoardState{
		Categories:     s.Categories(),
		Boards:         s.Boards(),
		WatchlistOrder: s.WatchlistOrder(),
	}
}

// Clone returns an independent copy of the store
func (s *Store) Clone() *Store {
	c := &Store{
		defaults:       slices.Clone(s.defaults),
		categories:     slices.Clone(s.categories),
		boards:         make(map[string][]models.Item, len(s.boards)),
		watchlistOrder: slices.Clone(s.watchlistOrder),
	}
	for k, items := range s.boards {
		c.boards[k] = cloneItems(items)
	}
	return c
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Cycle != nil {
			out[i].Cycle = models.IntPtr(*it.Cycle)
		}
	}
	return out
}
