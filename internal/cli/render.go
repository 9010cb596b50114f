package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

var statusColors = map[models.Status]lipgloss.Color{
	models.StatusAvailable:   lipgloss.Color("#28a745"),
	models.StatusDrafted:     lipgloss.Color("#6c757d"),
	models.StatusUnavailable: lipgloss.Color("#dc3545"),
	models.StatusWatch:       lipgloss.Color("#ffc107"),
}

type renderer struct {
	w      io.Writer
	r      *lipgloss.Renderer
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := lipgloss.NewRenderer(w)
	return &renderer{
		w:      w,
		r:      r,
		title:  r.NewStyle().Bold(true).MarginTop(1),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

func (rd *renderer) status(st models.Status) string {
	return rd.r.NewStyle().Foreground(statusColors[st]).Render(string(st))
}

func cycleText(c *int) string {
	if c == nil {
		return ""
	}
	return strconv.Itoa(*c)
}

func (rd *renderer) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(rd.r.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return rd.header
			}
			return rd.cell
		}).
		Render()
}

func (rd *renderer) board(b models.Board) {
	fmt.Fprintln(rd.w, rd.title.Render(fmt.Sprintf("%s (%d)", b.Category, len(b.Items))))
	if len(b.Items) == 0 {
		fmt.Fprintln(rd.w, "  no items")
		return
	}

	rows := make([][]string, 0, len(b.Items))
	for _, it := range b.Items {
		rows = append(rows, []string{
			strconv.Itoa(it.Rank), it.Name, it.Group, cycleText(it.Cycle), it.Notes, rd.status(it.Status),
		})
	}
	fmt.Fprintln(rd.w, rd.table([]string{"Rank", "Name", "Group", "Cycle", "Notes", "Status"}, rows))
}

func (rd *renderer) watchlist(view models.WatchlistView) {
	fmt.Fprintln(rd.w, rd.title.Render(fmt.Sprintf("Watchlist (%d)", len(view.Items))))
	if len(view.Items) == 0 {
		fmt.Fprintln(rd.w, "  nothing on watch")
		return
	}

	rows := make([][]string, 0, len(view.Items))
	for i, it := range view.Items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), it.Name, it.Category, strconv.Itoa(it.SourceRank), it.Group, cycleText(it.Cycle), it.Notes,
		})
	}
	fmt.Fprintln(rd.w, rd.table([]string{"#", "Name", "Category", "Rank", "Group", "Cycle", "Notes"}, rows))
}

func (rd *renderer) summary(categories []string, sum models.Summary) {
	fmt.Fprintln(rd.w, rd.title.Render("Summary"))
	fmt.Fprintf(rd.w, "Players: %d  Drafted: %d  Next pick: %d\n", sum.Total, sum.Drafted, sum.NextPick)

	statusRows := make([][]string, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		statusRows = append(statusRows, []string{rd.status(st), strconv.Itoa(sum.ByStatus[st])})
	}
	fmt.Fprintln(rd.w, rd.table([]string{"Status", "Items"}, statusRows))

	catRows := make([][]string, 0, len(categories))
	for _, c := range categories {
		name := c
		if name == "" {
			name = "(blank)"
		}
		catRows = append(catRows, []string{name, strconv.Itoa(sum.ByCategory[c])})
	}
	fmt.Fprintln(rd.w, rd.table([]string{"Category", "Items"}, catRows))
}

func hiddenFrom(values []string) []models.Status {
	var out []models.Status
	for _, v := range values {
		out = append(out, board.ParseStatusList(v)...)
	}
	return out
}
