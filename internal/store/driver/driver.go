// Package driver opens the configured store backend.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"hiretrack/internal/config"
	"hiretrack/internal/store"
	"hiretrack/internal/store/memory"
	"hiretrack/internal/store/postgres"
)

// Options controls what Open does besides connecting.
type Options struct {
	// Migrate applies pending migrations to Postgres before returning.
	Migrate bool
	Logger  *slog.Logger
}

// Open returns the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, opts Options) (store.Backend, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			log.Info("running database migrations")
			if err := postgres.Migrate(s.DB()); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return s, nil

	case config.StoreMemory:
		s := memory.New()
		if cfg.SeedJobsFile != "" {
			n, err := s.LoadJobsFile(cfg.SeedJobsFile)
			if err != nil {
				return nil, err
			}
			log.Info("seeded jobs", "count", n, "file", cfg.SeedJobsFile)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
