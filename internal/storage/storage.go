// Package storage selects the repository backend named by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/organizador/platform/internal/config"
	"github.com/organizador/platform/internal/database"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/storage/memory"
	"github.com/organizador/platform/internal/storage/sqlstore"
)

// Store hands out the repositories of one backend.
type Store interface {
	Options(now func() time.Time) domain.Options
	Campaign() campaign.Repositories
}

// Backend is an open store plus the connection it owns, if any.
type Backend struct {
	Store
	Name       string
	Persistent bool
	db         *database.DB
}

// Open connects the configured backend. SQL backends are migrated before
// they are returned.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		logger.Info("using in-memory repositories (DATA_BACKEND=memory)")
		return &Backend{Store: memory.NewStore(), Name: cfg.DataBackend}, nil
	case config.BackendPostgres, config.BackendSQLite:
		db, err := Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, database.NewEmbeddedMigrator(db, logger)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("using sql repositories", "backend", cfg.DataBackend)
		return &Backend{
			Store:      sqlstore.New(db.DB, db.Dialect),
			Name:       cfg.DataBackend,
			Persistent: true,
			db:         db,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// Connect opens the SQL database for a postgres or sqlite configuration
// without migrating it.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*database.DB, error) {
	dialect, err := database.ParseDialect(cfg.DataBackend)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseURL
	if dialect == database.SQLite {
		dsn = cfg.SQLitePath
	}
	db, err := database.Connect(ctx, database.Options{
		Dialect:         dialect,
		DSN:             dsn,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Close releases the database connection of SQL backends.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
