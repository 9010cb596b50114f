package clickhouse

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

func TestSnapshotRows(t *testing.T) {
	at := time.Date(2026, 8, 30, 19, 0, 0, 0, time.UTC)
	state := &models.BoardState{
		Categories: []string{"QB", "RB", "K"},
		Boards: []models.Board{
			{Category: "QB", Items: []models.Item{
				{Rank: 1, Name: "Josh Allen", Group: "BUF", Cycle: models.IntPtr(7), Status: models.StatusDrafted},
			}},
			{Category: "RB", Items: []models.Item{
				{Rank: 1, Name: "Breece Hall", Group: "NYJ", Notes: "Breakout year", Status: models.StatusWatch},
			}},
			{Category: "K", Items: []models.Item{}},
		},
	}

	seven := int32(7)
	want := []snapshotRow{
		{SessionID: "s1", TakenAt: at, Category: "QB", Rank: 1, Name: "Josh Allen", Group: "BUF", Cycle: &seven, Status: "Drafted"},
		{SessionID: "s1", TakenAt: at, Category: "RB", Rank: 1, Name: "Breece Hall", Group: "NYJ", Notes: "Breakout year", Status: "Watch"},
	}
	if diff := cmp.Diff(want, snapshotRows("s1", at, state)); diff != "" {
		t.Errorf("snapshotRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRowsEmpty(t *testing.T) {
	rows := snapshotRows("s1", time.Now(), &models.BoardState{Boards: []models.Board{{Category: "QB"}}})
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}
