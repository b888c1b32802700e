package db

import (
	"database/sql"
	"io"
	"log/slog"
)

// NewTestDB wraps an existing *sql.DB (a sqlmock handle or a test database)
// with a discard logger.
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{
		DB:     sqlDB,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
