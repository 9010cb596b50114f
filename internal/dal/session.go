package dal

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// persister mirrors a whole board state to a backend
type persister interface {
	// load returns nil when the backend holds nothing for this session
	load() (*models.BoardState, error)
	save(state *models.BoardState) error
	close() error
}

// sessionStore owns the Board Store of one planning session. Mutations run
// against a clone which is mirrored to the persister and swapped in only
// when that succeeds.
type sessionStore struct {
	mu      sync.RWMutex
	store   *board.Store
	persist persister
}

func newSessionStore(defaults []string, p persister) (*sessionStore, error) {
	s := &sessionStore{store: board.NewStore(defaults), persist: p}
	if p == nil {
		return s, nil
	}

	state, err := p.load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state != nil {
		s.store = board.NewStoreFromState(state, defaults)
		logger.Info("Resumed board session", "categories", len(state.Categories), "items", s.store.Len())
		return s, nil
	}

	if err := p.save(s.store.State()); err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	return s, nil
}

func (s *sessionStore) mutate(op string, fn func(st *board.Store) (*models.Outcome, error)) (*models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.With("op", op)
	next := s.store.Clone()
	out, err := fn(next)
	if err != nil {
		log.Warn("Board operation rejected", "error", err)
		return nil, err
	}
	if !out.Changed {
		return out, nil
	}

	if s.persist != nil {
		if err := s.persist.save(next.State()); err != nil {
			log.Error("Failed to persist boards", "error", err)
			return nil, fmt.Errorf("persist %s: %w", op, err)
		}
	}
	s.store = next

	log.Debug("Board operation applied", "count", out.Count)
	return out, nil
}

func snapshot(st *board.Store, category string) *models.Board {
	b, err := st.Board(category)
	if err != nil {
		return nil
	}
	return &b
}

func sameItems(a, b []models.Item) bool {
	return slices.EqualFunc(a, b, func(x, y models.Item) bool {
		return x.Rank == y.Rank && x.Status == y.Status && board.Fingerprint(x) == board.Fingerprint(y)
	})
}

func sameBoards(a, b []models.Board) bool {
	return slices.EqualFunc(a, b, func(x, y models.Board) bool {
		return x.Category == y.Category && sameItems(x.Items, y.Items)
	})
}

func (s *sessionStore) GetState() (*models.BoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.State(), nil
}

func (s *sessionStore) GetBoard(category string) (*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.store.Board(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, category)
	}
	return &b, nil
}

func (s *sessionStore) AddCategory(name string) (*models.Outcome, error) {
	return s.mutate("add_category", func(st *board.Store) (*models.Outcome, error) {
		key, added, err := st.AddCategory(name)
		if err != nil {
			return nil, err
		}
		out := &models.Outcome{Changed: added, Board: snapshot(st, key)}
		if added {
			out.Count = 1
			out.Message = fmt.Sprintf("Added category %s", key)
		} else {
			out.Message = fmt.Sprintf("Category %s already exists", key)
		}
		return out, nil
	})
}

func (s *sessionStore) AddItem(category string, item models.Item) (*models.Outcome, error) {
	return s.mutate("add_item", func(st *board.Store) (*models.Outcome, error) {
		b, err := st.AddItem(category, item)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{
			Changed: true,
			Count:   1,
			Message: fmt.Sprintf("Added %s to %s", strings.TrimSpace(item.Name), b.Category),
			Board:   &b,
		}, nil
	})
}

func (s *sessionStore) BulkAddItems(category, text string) (*models.Outcome, error) {
	return s.mutate("bulk_add", func(st *board.Store) (*models.Outcome, error) {
		n, err := st.BulkAdd(category, text)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return &models.Outcome{Message: "Nothing to add"}, nil
		}
		key := board.NormalizeCategory(category)
		return &models.Outcome{
			Changed: true,
			Count:   n,
			Message: fmt.Sprintf("Added %d items to %s", n, key),
			Board:   snapshot(st, key),
		}, nil
	})
}

func (s *sessionStore) RestatusSelected(category string, indices []int, status models.Status) (*models.Outcome, error) {
	return s.mutate("restatus", func(st *board.Store) (*models.Outcome, error) {
		var before []models.Item
		if b, err := st.Board(category); err == nil {
			before = b.Items
		}
		n, err := st.RestatusSelected(category, indices, status)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return &models.Outcome{Message: "No rows selected"}, nil
		}
		parsed, _ := models.ParseStatus(string(status))
		after := snapshot(st, category)
		return &models.Outcome{
			Changed: !sameItems(before, after.Items),
			Count:   n,
			Message: fmt.Sprintf("Marked %d items as %s", n, parsed),
			Board:   after,
		}, nil
	})
}

func (s *sessionStore) RemoveSelected(category string, indices []int) (*models.Outcome, error) {
	return s.mutate("remove", func(st *board.Store) (*models.Outcome, error) {
		n, err := st.RemoveSelected(category, indices)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return &models.Outcome{Message: "No rows selected"}, nil
		}
		return &models.Outcome{
			Changed: true,
			Count:   n,
			Message: fmt.Sprintf("Removed %d items", n),
			Board:   snapshot(st, category),
		}, nil
	})
}

func (s *sessionStore) ReconcileEdit(category string, rows []board.Row) (*models.Outcome, error) {
	return s.mutate("reconcile", func(st *board.Store) (*models.Outcome, error) {
		var before []models.Item
		if b, err := st.Board(category); err == nil {
			before = b.Items
		}
		existed := st.Has(category)

		res, err := st.ReconcileEdit(category, rows)
		if err != nil {
			return nil, err
		}
		after := snapshot(st, category)
		return &models.Outcome{
			Changed:  !existed || !sameItems(before, after.Items),
			Count:    len(after.Items),
			Board:    after,
			Kept:     res.Kept,
			Dropped:  res.Dropped,
			Inserted: res.Inserted,
		}, nil
	})
}

func (s *sessionStore) Watchlist() (*models.WatchlistView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := s.store.Watchlist()
	return &view, nil
}

func (s *sessionStore) SetWatchlistOrder(names []string) (*models.Outcome, error) {
	return s.mutate("watchlist_order", func(st *board.Store) (*models.Outcome, error) {
		changed := st.SetWatchlistOrder(names)
		return &models.Outcome{Changed: changed, Count: len(names)}, nil
	})
}

func (s *sessionStore) RestatusWatchlist(indices []int, status models.Status) (*models.Outcome, error) {
	return s.mutate("watchlist_status", func(st *board.Store) (*models.Outcome, error) {
		if len(indices) == 0 {
			return &models.Outcome{Message: "No rows selected"}, nil
		}
		n, err := st.RestatusWatchlist(indices, status)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{Changed: n > 0, Count: n}, nil
	})
}

func (s *sessionStore) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Export()
}

func (s *sessionStore) Import(data []byte) (*models.Outcome, error) {
	return s.mutate("import", func(st *board.Store) (*models.Outcome, error) {
		before := st.Boards()
		res, err := st.Import(data)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{
			Changed:    !sameBoards(before, st.Boards()),
			Count:      res.Rows,
			Message:    fmt.Sprintf("Imported %d rows into %d boards", res.Rows, len(res.Categories)),
			Categories: res.Categories,
		}, nil
	})
}

func (s *sessionStore) Reset() error {
	_, err := s.mutate("reset", func(st *board.Store) (*models.Outcome, error) {
		st.ResetToDefaults()
		return &models.Outcome{Changed: true}, nil
	})
	return err
}

func (s *sessionStore) ClearAll() error {
	_, err := s.mutate("clear", func(st *board.Store) (*models.Outcome, error) {
		st.ClearAll()
		return &models.Outcome{Changed: true}, nil
	})
	return err
}

func (s *sessionStore) Reindex(category string) (*models.Outcome, error) {
	return s.mutate("reindex", func(st *board.Store) (*models.Outcome, error) {
		before := st.Boards()
		if category == "" {
			st.ReindexAll()
			return &models.Outcome{Changed: !sameBoards(before, st.Boards()), Count: len(before)}, nil
		}

		prev, err := st.Board(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, category)
		}
		if err := st.Reindex(category); err != nil {
			return nil, err
		}
		after := snapshot(st, category)
		return &models.Outcome{Changed: !sameItems(prev.Items, after.Items), Count: 1, Board: after}, nil
	})
}

func (s *sessionStore) Close() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.close()
}
