// Package sqlite persists the session slice in a SQLite database through the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/or-admin/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the connection pool with the repositories built on it.
type Storage struct {
	*SessionSliceRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to dsn using DefaultConfig.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, DefaultConfig(dsn))
	if err != nil {
		return nil, err
	}
	return NewStorage(pool, logger), nil
}

// NewStorage builds a Storage on an existing pool.
func NewStorage(pool *ConnectionPool, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		SessionSliceRepository: NewSessionSliceRepository(pool),
		pool:                   pool,
		logger:                 logger,
	}
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
