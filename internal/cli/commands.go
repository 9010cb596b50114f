package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

func newShowCmd(app *App) *cobra.Command {
	var hide []string

	cmd := &cobra.Command{
		Use:   "show [CATEGORY]",
		Short: "Print one board, or every board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}
			hidden := hiddenFrom(hide)
			rd := newRenderer(cmd.OutOrStdout())

			if len(args) == 1 {
				b, err := s.Board(args[0])
				if err != nil {
					return fmt.Errorf("%w: %s", err, args[0])
				}
				rd.board(board.FilterHidden(b, hidden))
				return nil
			}
			for _, b := range s.Boards() {
				rd.board(board.FilterHidden(b, hidden))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&hide, "hide", nil, "statuses to hide, e.g. --hide Drafted,Unavailable")
	return cmd
}

func newWatchlistCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watchlist",
		Short: "Print every Watch item across the boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).watchlist(s.Watchlist())
			return nil
		},
	}
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print item counts per status and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}
			newRenderer(cmd.OutOrStdout()).summary(s.Categories(), board.Summarize(s.Boards()))
			return nil
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var (
		group string
		cycle int
		notes string
	)

	cmd := &cobra.Command{
		Use:   "add CATEGORY NAME",
		Short: "Append one item to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}

			item := models.Item{Name: args[1], Group: group, Notes: notes}
			if cmd.Flags().Changed("cycle") {
				item.Cycle = models.IntPtr(cycle)
			}
			b, err := s.AddItem(args[0], item)
			if err != nil {
				return err
			}
			if err := app.save(s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s at rank %d\n", strings.TrimSpace(args[1]), b.Category, len(b.Items))
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "team or group")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "bye week")
	cmd.Flags().StringVar(&notes, "notes", "", "free text notes")
	return cmd
}

func newBulkAddCmd(app *App) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "bulk-add CATEGORY",
		Short: `Add one item per "name|group|cycle|notes" line`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				text []byte
				err  error
			)
			if input == "" || input == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(input)
			}
			if err != nil {
				return err
			}

			s, err := app.load()
			if err != nil {
				return err
			}
			n, err := s.BulkAdd(args[0], string(text))
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to add")
				return nil
			}
			if err := app.save(s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d items to %s\n", n, board.NormalizeCategory(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "file to read lines from, - for stdin")
	return cmd
}

func newStatusCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "status CATEGORY RANK...",
		Short: "Set the status of items by rank",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseRanks(args[1:])
			if err != nil {
				return err
			}
			s, err := app.load()
			if err != nil {
				return err
			}
			n, err := s.RestatusSelected(args[0], idx, models.Status(to))
			if err != nil {
				return err
			}
			if err := app.save(s); err != nil {
				return err
			}
			st, _ := models.ParseStatus(to)
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d items as %s\n", n, st)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "new status: Available, Drafted, Unavailable or Watch")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CATEGORY RANK...",
		Short: "Delete items by rank and re-rank the board",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseRanks(args[1:])
			if err != nil {
				return err
			}
			s, err := app.load()
			if err != nil {
				return err
			}
			n, err := s.RemoveSelected(args[0], idx)
			if err != nil {
				return err
			}
			if err := app.save(s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", n)
			return nil
		},
	}
}

func newReindexCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [CATEGORY]",
		Short: "Re-derive ranks 1..N on one board, or on every board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := s.Reindex(args[0]); err != nil {
					return fmt.Errorf("%w: %s", err, args[0])
				}
			} else {
				s.ReindexAll()
			}
			if err := app.save(s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ranks rebuilt")
			return nil
		},
	}
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the board file can be imported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(app.File)
			if err != nil {
				return err
			}
			res, err := board.NewStore(nil).Import(data)
			if err != nil {
				return fmt.Errorf("%s: %w", app.File, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows in %d boards\n", app.File, res.Rows, len(res.Categories))
			if len(res.Added) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Non-default categories: %s\n", strings.Join(res.Added, ", "))
			}
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default boards with the sample RB board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.save(board.NewStore(nil)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Boards reset")
			return nil
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from every board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.load()
			if err != nil {
				return err
			}
			s.ClearAll()
			if err := app.save(s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All boards cleared")
			return nil
		},
	}
}
