package board

import (
	"slices"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// ParseStatusList parses a comma separated list of statuses, skipping
// anything that is not a status.
func ParseStatusList(s string) []models.Status {
	var out []models.Status
	for _, part := range strings.Split(s, ",") {
		if st, ok := models.ParseStatus(part); ok && !slices.Contains(out, st) {
			out = append(out, st)
		}
	}
	return out
}

// FilterHidden returns b without the items whose status is hidden.
// Ranks are left as they are on the full board.
func FilterHidden(b models.Board, hidden []models.Status) models.Board {
	if len(hidden) == 0 {
		return b
	}
	out := models.Board{Category: b.Category, Items: []models.Item{}}
	for _, it := range b.Items {
		if !slices.Contains(hidden, it.Status) {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// Summarize counts items per status and per category
func Summarize(boards []models.Board) models.Summary {
	sum := models.Summary{
		ByStatus:   make(map[models.Status]int, len(models.Statuses)),
		ByCategory: make(map[string]int, len(boards)),
	}
	for _, st := range models.Statuses {
		sum.ByStatus[st] = 0
	}
	for _, b := range boards {
		sum.ByCategory[b.Category] += len(b.Items)
		for _, it := range b.Items {
			sum.Total++
			sum.ByStatus[it.Status]++
		}
	}
	sum.Drafted = sum.ByStatus[models.StatusDrafted]
	sum.NextPick = sum.Drafted + 1
	return sum
}
