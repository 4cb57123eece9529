package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"dbaccess/src/core/domain"
)

// Migrate applies goose migrations from the configured directory over the
// direct pool, or the primary pool when no direct DSN is set.
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}

	m.mu.RLock()
	dir, table := m.cfg.MigrationsDir, m.cfg.MigrationsTable
	m.mu.RUnlock()
	if dir == "" {
		return domain.NewConfigurationError("DB_MIGRATIONS_DIR is empty")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations directory %q: %w", dir, err)
	}

	primary, direct := m.pools()
	target, name := direct, directPool
	if target == nil {
		target, name = primary, primaryPool
		m.log.Warn("no direct pool configured, migrating through the primary pool")
	}
	pg, ok := target.(interface{ Unwrap() *pgxpool.Pool })
	if !ok {
		return domain.NewConfigurationError("migrations require a postgres pool")
	}

	// goose speaks database/sql; share the pool's connections rather than dialing anew.
	sqlDB := stdlib.OpenDBFromPool(pg.Unwrap())
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			m.log.Error("failed to close migration handle", "error", err)
		}
	}(sqlDB)

	goose.SetLogger(gooseLogger{log: m.log.With("pool", name)})
	goose.SetTableName(table)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		if errors.Is(err, goose.ErrNoMigrationFiles) {
			m.log.Info("no migrations to apply", "dir", dir)
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.log.Info("migrations applied", "dir", dir, "pool", name)
	return nil
}

// gooseLogger routes goose's printf logging into slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}
