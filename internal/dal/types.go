package dal

import (
	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// BoardDAL defines the interface for the data access layer. Every method is
// serialized; a failed call leaves the boards as they were.
type BoardDAL interface {
	GetState() (*models.BoardState, error)
	GetBoard(category string) (*models.Board, error)
	AddCategory(name string) (*models.Outcome, error)
	AddItem(category string, item models.Item) (*models.Outcome, error)
	BulkAddItems(category, text string) (*models.Outcome, error)
	RestatusSelected(category string, indices []int, status models.Status) (*models.Outcome, error)
	RemoveSelected(category string, indices []int) (*models.Outcome, error)
	ReconcileEdit(category string, rows []board.Row) (*models.Outcome, error)
	Watchlist() (*models.WatchlistView, error)
	SetWatchlistOrder(names []string) (*models.Outcome, error)
	RestatusWatchlist(indices []int, status models.Status) (*models.Outcome, error)
	Export() ([]byte, error)
	Import(data []byte) (*models.Outcome, error)
	Reset() error
	ClearAll() error
	// Reindex re-derives rank on one board, or on every board when category is empty
	Reindex(category string) (*models.Outcome, error)
	Close() error
}
