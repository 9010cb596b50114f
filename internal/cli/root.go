// Package cli implements boardctl, an offline editor for exported draft board CSV files.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
)

// DefaultFile is used when neither --file nor BOARDCTL_FILE is set
const DefaultFile = "draft_board.csv"

type App struct {
	File string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	defaultFile := strings.TrimSpace(os.Getenv("BOARDCTL_FILE"))
	if defaultFile == "" {
		defaultFile = DefaultFile
	}

	cmd := &cobra.Command{
		Use:          "boardctl",
		Short:        "Edit a draft board CSV from the command line",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show every board, hiding drafted players
  boardctl show --hide Drafted

  # Add a player and mark the first two RBs as drafted
  boardctl add QB "Josh Allen" --group BUF --cycle 7
  boardctl status RB --to Drafted 1 2

  # Paste a list, one "name|group|cycle|notes" per line
  pbpaste | boardctl bulk-add WR --input -
`),
	}

	cmd.PersistentFlags().StringVarP(&app.File, "file", "f", defaultFile, "board CSV file (env BOARDCTL_FILE)")

	cmd.AddCommand(
		newShowCmd(app),
		newWatchlistCmd(app),
		newSummaryCmd(app),
		newAddCmd(app),
		newBulkAddCmd(app),
		newStatusCmd(app),
		newRemoveCmd(app),
		newReindexCmd(app),
		newValidateCmd(app),
		newResetCmd(app),
		newClearCmd(app),
	)
	return cmd
}

// load reads the board file. A missing or empty file yields the default
// categories with no items.
func (a *App) load() (*board.Store, error) {
	s := board.NewStore(nil)
	s.ClearAll()

	data, err := os.ReadFile(a.File)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if _, err := s.Import(data); err != nil {
		return nil, fmt.Errorf("%s: %w", a.File, err)
	}
	return s, nil
}

// save writes the store back atomically. An empty store is written as a
// bare header so the file stays importable.
func (a *App) save(s *board.Store) error {
	data, err := s.Export()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		data = []byte(strings.Join(board.Columns, ",") + "\n")
	}
	return atomic.WriteFile(a.File, bytes.NewReader(data))
}

// parseRanks converts 1-based ranks into 0-based positions
func parseRanks(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid rank %q: ranks start at 1", a)
		}
		out = append(out, n-1)
	}
	return out, nil
}
