package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending up migration. Concurrent callers are
// serialised by the driver's advisory lock.
func (db *DB) Migrate(ctx context.Context) error {
	return db.runMigrations(ctx, "up", (*migrate.Migrate).Up)
}

// MigrateDown reverts every applied migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	return db.runMigrations(ctx, "down", (*migrate.Migrate).Down)
}

func (db *DB) runMigrations(ctx context.Context, direction string, run func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	// A dedicated connection keeps m.Close from closing the shared pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("failed to acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		_ = src.Close()
		return fmt.Errorf("failed to open migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		_ = src.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrationLogger{logger: db.logger}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			db.logger.Warn("failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	stop := context.AfterFunc(ctx, func() { m.GracefulStop <- true })
	defer stop()

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		db.logger.Info("migrations reverted", "direction", direction)
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	default:
		db.logger.Info("migrations applied", "direction", direction, "version", version, "dirty", dirty)
	}
	return nil
}

// migrationLogger routes migrate's progress lines into slog
type migrationLogger struct {
	logger *slog.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l migrationLogger) Verbose() bool {
	return false
}
