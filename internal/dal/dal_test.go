package dal

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

func backends(t *testing.T) map[string]BoardDAL {
	t.Helper()
	sqliteDAL, err := NewSQLiteDAL(":memory:", "test-session", nil)
	if err != nil {
		t.Fatalf("NewSQLiteDAL() failed: %v", err)
	}
	t.Cleanup(func() { sqliteDAL.Close() })

	return map[string]BoardDAL{
		"memory": NewMemoryDAL(nil),
		"sqlite": sqliteDAL,
	}
}

func TestBoardDALOperations(t *testing.T) {
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			state, err := d.GetState()
			if err != nil {
				t.Fatalf("GetState() failed: %v", err)
			}
			if len(state.Categories) != len(board.DefaultCategories) {
				t.Fatalf("expected default categories, got %v", state.Categories)
			}

			out, err := d.AddItem("qb", models.Item{Name: "Josh Allen", Group: "BUF", Cycle: models.IntPtr(7)})
			if err != nil {
				t.Fatalf("AddItem() failed: %v", err)
			}
			if !out.Changed || out.Board == nil || out.Board.Category != "QB" {
				t.Fatalf("unexpected outcome: %+v", out)
			}

			out, err = d.BulkAddItems("QB", "Jalen Hurts|PHI|5\n\nLamar Jackson|BAL|14")
			if err != nil {
				t.Fatalf("BulkAddItems() failed: %v", err)
			}
			if out.Count != 2 || len(out.Board.Items) != 3 {
				t.Fatalf("expected 2 added and 3 on board, got %+v", out)
			}

			if _, err := d.RestatusSelected("QB", []int{0, 2}, models.StatusWatch); err != nil {
				t.Fatalf("RestatusSelected() failed: %v", err)
			}
			out, err = d.RemoveSelected("QB", []int{1})
			if err != nil {
				t.Fatalf("RemoveSelected() failed: %v", err)
			}
			if out.Count != 1 || len(out.Board.Items) != 2 || out.Board.Items[1].Rank != 2 {
				t.Fatalf("unexpected remove outcome: %+v", out.Board)
			}

			view, err := d.Watchlist()
			if err != nil {
				t.Fatalf("Watchlist() failed: %v", err)
			}
			if len(view.Items) != 2 {
				t.Fatalf("expected 2 watch items, got %d", len(view.Items))
			}

			if _, err := d.SetWatchlistOrder([]string{"Lamar Jackson"}); err != nil {
				t.Fatalf("SetWatchlistOrder() failed: %v", err)
			}
			view, _ = d.Watchlist()
			if view.Items[0].Name != "Lamar Jackson" {
				t.Errorf("expected custom order to apply, got %q first", view.Items[0].Name)
			}

			b, err := d.GetBoard("qb")
			if err != nil {
				t.Fatalf("GetBoard() failed: %v", err)
			}
			if b.Items[0].Status != models.StatusWatch {
				t.Errorf("expected Josh Allen on Watch, got %s", b.Items[0].Status)
			}
		})
	}
}

func TestBoardDALNoOps(t *testing.T) {
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			before, _ := d.GetState()

			checks := []func() (*models.Outcome, error){
				func() (*models.Outcome, error) { return d.BulkAddItems("RB", "  \n ") },
				func() (*models.Outcome, error) { return d.RestatusSelected("RB", nil, models.StatusDrafted) },
				func() (*models.Outcome, error) { return d.RemoveSelected("RB", []int{}) },
				func() (*models.Outcome, error) { return d.RestatusWatchlist(nil, models.StatusDrafted) },
				func() (*models.Outcome, error) { return d.AddCategory("rb") },
				func() (*models.Outcome, error) { return d.Reindex("") },
			}
			for i, check := range checks {
				out, err := check()
				if err != nil {
					t.Fatalf("check %d: unexpected error %v", i, err)
				}
				if out.Changed {
					t.Errorf("check %d: expected no change, got %+v", i, out)
				}
			}

			after, _ := d.GetState()
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("no-op changed state (-before +after):\n%s", diff)
			}
		})
	}
}

type countingPersister struct {
	saves int
}

func (c *countingPersister) load() (*models.BoardState, error) { return nil, nil }

func (c *countingPersister) save(*models.BoardState) error {
	c.saves++
	return nil
}

func (c *countingPersister) close() error { return nil }

func TestSessionStoreSkipsUnchangedWrites(t *testing.T) {
	p := &countingPersister{}
	s, err := newSessionStore(nil, p)
	if err != nil {
		t.Fatalf("newSessionStore() failed: %v", err)
	}
	if _, err := s.RestatusSelected("RB", []int{0}, models.StatusWatch); err != nil {
		t.Fatal(err)
	}
	exported, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	saves := p.saves

	checks := map[string]func() (*models.Outcome, error){
		"same status":         func() (*models.Outcome, error) { return s.RestatusSelected("RB", []int{0}, "watch") },
		"watch to watch":      func() (*models.Outcome, error) { return s.RestatusWatchlist([]int{0}, models.StatusWatch) },
		"header only import":  func() (*models.Outcome, error) { return s.Import([]byte(strings.Join(board.Columns, ",") + "\n")) },
		"identical re-import": func() (*models.Outcome, error) { return s.Import(exported) },
	}
	for name, check := range checks {
		out, err := check()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if out.Changed {
			t.Errorf("%s: expected no change, got %+v", name, out)
		}
	}
	if p.saves != saves {
		t.Errorf("expected no writes for unchanged outcomes, got %d", p.saves-saves)
	}

	out, err := s.RestatusWatchlist([]int{0}, models.StatusDrafted)
	if err != nil || !out.Changed || out.Count != 1 {
		t.Errorf("expected a real restatus to change one row, got %+v, %v", out, err)
	}
}

func TestBoardDALErrorsLeaveStateUnchanged(t *testing.T) {
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			before, _ := d.GetState()

			if _, err := d.AddItem("RB", models.Item{Name: " "}); !errors.Is(err, board.ErrEmptyName) {
				t.Errorf("expected ErrEmptyName, got %v", err)
			}
			if _, err := d.RemoveSelected("RB", []int{0, 9}); !errors.Is(err, board.ErrIndexOutOfRange) {
				t.Errorf("expected ErrIndexOutOfRange, got %v", err)
			}
			if _, err := d.RestatusSelected("NOPE", []int{0}, models.StatusWatch); !errors.Is(err, board.ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}
			if _, err := d.Import([]byte("category,name\nRB,x\n")); !errors.Is(err, board.ErrMissingColumns) {
				t.Errorf("expected ErrMissingColumns, got %v", err)
			}
			if _, err := d.GetBoard("NOPE"); !errors.Is(err, board.ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}
			if _, err := d.Reindex("NOPE"); !errors.Is(err, board.ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}

			after, _ := d.GetState()
			if diff := cmp.Diff(before, after); diff != "" {
				t.Errorf("failed operations changed state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestBoardDALImportExportResetClear(t *testing.T) {
	for name, d := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data, err := d.Export()
			if err != nil {
				t.Fatalf("Export() failed: %v", err)
			}
			if !strings.HasPrefix(string(data), "category,rank,name") {
				t.Fatalf("unexpected export: %q", data)
			}

			if err := d.ClearAll(); err != nil {
				t.Fatalf("ClearAll() failed: %v", err)
			}
			if data, _ := d.Export(); len(data) != 0 {
				t.Errorf("expected empty export after ClearAll, got %q", data)
			}

			out, err := d.Import([]byte("category,rank,name,group,cycle,notes,status\nK,,Justin Tucker,BAL,14,,Available\nIDP,,Micah Parsons,DAL,,,Watch\n"))
			if err != nil {
				t.Fatalf("Import() failed: %v", err)
			}
			if out.Count != 2 || !cmp.Equal(out.Categories, []string{"K", "IDP"}) {
				t.Errorf("unexpected import outcome: %+v", out)
			}

			if err := d.Reset(); err != nil {
				t.Fatalf("Reset() failed: %v", err)
			}
			state, _ := d.GetState()
			if diff := cmp.Diff(board.DefaultCategories, state.Categories); diff != "" {
				t.Errorf("reset categories mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoardDALReconcile(t *testing.T) {
	d := NewMemoryDAL([]string{"RB"})

	out, err := d.ReconcileEdit("RB", []board.Row{
		{"name": "Bijan Robinson", "group": "ATL", "cycle": "11", "notes": "Rookie stud"},
		{"name": "Christian McCaffrey", "group": "SF", "cycle": "9", "notes": "Elite talent"},
	})
	if err != nil {
		t.Fatalf("ReconcileEdit() failed: %v", err)
	}
	if !out.Changed || out.Kept != 2 || out.Dropped != 1 || out.Inserted != 0 {
		t.Errorf("unexpected outcome: %+v", out)
	}

	// the same snapshot again is a no-op
	out, err = d.ReconcileEdit("RB", []board.Row{
		{"name": "Bijan Robinson", "group": "ATL", "cycle": "11", "notes": "Rookie stud"},
		{"name": "Christian McCaffrey", "group": "SF", "cycle": "9", "notes": "Elite talent"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Changed {
		t.Errorf("expected identical snapshot to be a no-op, got %+v", out)
	}
}

func TestSQLiteDALResumesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")

	first, err := NewSQLiteDAL(path, "sitting-1", nil)
	if err != nil {
		t.Fatalf("NewSQLiteDAL() failed: %v", err)
	}
	if _, err := first.Import([]byte("category,rank,name,group,cycle,notes,status\n,1,Loose,,,,Available\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := first.BulkAddItems("TE", "Sam LaPorta|DET|5\nTrey McBride|ARI|"); err != nil {
		t.Fatal(err)
	}
	if _, err := first.SetWatchlistOrder([]string{"Trey McBride", "Sam LaPorta"}); err != nil {
		t.Fatal(err)
	}
	want, _ := first.GetState()
	first.Close()

	second, err := NewSQLiteDAL(path, "sitting-1", nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	got, _ := second.GetState()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resumed state mismatch (-want +got):\n%s", diff)
	}

	other, err := NewSQLiteDAL(path, "sitting-2", []string{"QB"})
	if err != nil {
		t.Fatalf("second session failed: %v", err)
	}
	defer other.Close()
	state, _ := other.GetState()
	if diff := cmp.Diff([]string{"QB"}, state.Categories); diff != "" {
		t.Errorf("sessions should be isolated (-want +got):\n%s", diff)
	}
}

type failingPersister struct {
	saves int
}

func (f *failingPersister) load() (*models.BoardState, error) { return nil, nil }

func (f *failingPersister) save(*models.BoardState) error {
	f.saves++
	if f.saves > 1 {
		return errors.New("disk full")
	}
	return nil
}

func (f *failingPersister) close() error { return nil }

func TestSessionStorePersistFailureKeepsState(t *testing.T) {
	p := &failingPersister{}
	s, err := newSessionStore(nil, p)
	if err != nil {
		t.Fatalf("newSessionStore() failed: %v", err)
	}
	before, _ := s.GetState()

	if _, err := s.AddItem("RB", models.Item{Name: "Kyren Williams"}); err == nil {
		t.Fatal("expected the persist failure to surface")
	}
	after, _ := s.GetState()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("failed persist changed state (-before +after):\n%s", diff)
	}
}

func TestDollarPlaceholders(t *testing.T) {
	got := dollarPlaceholders("INSERT INTO t (a, b) VALUES (?, ?) WHERE c = ?")
	want := "INSERT INTO t (a, b) VALUES ($1, $2) WHERE c = $3"
	if got != want {
		t.Errorf("dollarPlaceholders() = %q, want %q", got, want)
	}
}
