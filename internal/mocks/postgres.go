package mocks

import (
	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// MockPostgresDAL provides a mock Postgres implementation using SQLite for local development
type MockPostgresDAL struct {
	dal.BoardDAL
}

// NewMockPostgresDAL creates a mock Postgres DAL backed by SQLite
func NewMockPostgresDAL(sqliteFile, sessionID string, defaults []string) (*MockPostgresDAL, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development", "file", sqliteFile)

	sqliteDAL, err := dal.NewSQLiteDAL(sqliteFile, sessionID, defaults)
	if err != nil {
		return nil, err
	}

	return &MockPostgresDAL{BoardDAL: sqliteDAL}, nil
}
