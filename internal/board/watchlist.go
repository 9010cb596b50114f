package board

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// ComputeWatchlist collects every Watch item across the store's boards,
// tagged with its category. When customOrder is given, items are sorted by
// the position of their name in it; names it does not mention keep their
// encounter order after all matched items. Ranks are re-derived 1..N.
func ComputeWatchlist(s *Store, customOrder []string) models.WatchlistView {
	var items []models.WatchItem
	for _, c := range s.categories {
		for _, it := range s.boards[c] {
			if it.Status != models.StatusWatch {
				continue
			}
			w := models.WatchItem{Item: it, Category: c, SourceRank: it.Rank}
			if it.Cycle != nil {
				w.Cycle = models.IntPtr(*it.Cycle)
			}
			items = append(items, w)
		}
	}

	if len(customOrder) > 0 {
		pos := make(map[string]int, len(customOrder))
		for i, name := range customOrder {
			pos[name] = i
		}
		key := func(w models.WatchItem) int {
			if p, ok := pos[w.Name]; ok {
				return p
			}
			return math.MaxInt
		}
		slices.SortStableFunc(items, func(a, b models.WatchItem) int {
			return cmp.Compare(key(a), key(b))
		})
	}

	for i := range items {
		items[i].Rank = i + 1
	}
	if items == nil {
		items = []models.WatchItem{}
	}
	return models.WatchlistView{Items: items, Order: slices.Clone(customOrder)}
}

// Watchlist computes the watchlist using the store's persisted custom order
func (s *Store) Watchlist() models.WatchlistView {
	return ComputeWatchlist(s, s.watchlistOrder)
}

// SetWatchlistOrder persists a custom name order for the watchlist and
// reports whether it differs from the previous one.
func (s *Store) SetWatchlistOrder(names []string) bool {
	if slices.Equal(s.watchlistOrder, names) {
		return false
	}
	s.watchlistOrder = slices.Clone(names)
	return true
}

// RestatusWatchlist applies a status to the source rows of the selected
// watchlist positions. Each selected row is resolved through its source rank
// and must still carry the same fingerprint. It returns how many source rows
// changed status.
func (s *Store) RestatusWatchlist(indices []int, status models.Status) (int, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	st, ok := models.ParseStatus(string(status))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	view := s.Watchlist()
	sel, err := selection(indices, len(view.Items))
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, i := range sel {
		w := view.Items[i]
		items := s.boards[w.Category]
		j := w.SourceRank - 1
		if j < 0 || j >= len(items) || Fingerprint(items[j]) != Fingerprint(w.Item) {
			return changed, fmt.Errorf("%w: watchlist row %d no longer matches %s", ErrIndexOutOfRange, i, w.Category)
		}
		if items[j].Status != st {
			items[j].Status = st
			changed++
		}
	}
	return changed, nil
}
