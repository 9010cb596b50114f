package mocks

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Billy-Davies-2/draft-board-planner/internal/board"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// MockAnalytics stands in for the ClickHouse client in local development.
// It keeps the status counts of the latest snapshot per session.
type MockAnalytics struct {
	mu        sync.Mutex
	latest    map[string]map[models.Status]int
	snapshots int
	lastAt    time.Time
}

// NewMockAnalytics creates a mock analytics sink
func NewMockAnalytics() *MockAnalytics {
	logger.Info("Using MOCK ClickHouse analytics for local development")
	return &MockAnalytics{latest: make(map[string]map[models.Status]int)}
}

// EnsureSchema is a no-op
func (m *MockAnalytics) EnsureSchema(ctx context.Context) error {
	return nil
}

// RecordSnapshot keeps the status counts of state. An empty state records nothing.
func (m *MockAnalytics) RecordSnapshot(ctx context.Context, sessionID string, state *models.BoardState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sum := board.Summarize(state.Boards)
	if sum.Total == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[sessionID] = sum.ByStatus
	m.snapshots++
	m.lastAt = time.Now().UTC()

	logger.Debug("Mock ClickHouse: Recorded snapshot", "session", sessionID, "items", sum.Total)
	return nil
}

// StatusCounts returns the counts of the session's latest snapshot
func (m *MockAnalytics) StatusCounts(ctx context.Context, sessionID string) (map[models.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	maps.Copy(counts, m.latest[sessionID])
	return counts, nil
}

// Snapshots returns how many snapshots were recorded
func (m *MockAnalytics) Snapshots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots
}

// Close is a no-op for the mock
func (m *MockAnalytics) Close() error {
	return nil
}
