package main

import (
	"context"
	"fmt"

	"github.com/tablecall/tablecall/internal/config"
	"github.com/tablecall/tablecall/internal/domain/catalog"
	"github.com/tablecall/tablecall/internal/domain/deletion"
	"github.com/tablecall/tablecall/internal/domain/player"
	"github.com/tablecall/tablecall/internal/domain/request"
	"github.com/tablecall/tablecall/internal/domain/segment"
	"github.com/tablecall/tablecall/internal/infrastructure/postgres"
	"github.com/tablecall/tablecall/internal/infrastructure/sqlite"
)

// repositories is the durable store, whichever backend serves it.
type repositories struct {
	players   player.Repository
	catalogs  catalog.Repository
	segments  segment.Repository
	requests  request.Repository
	deletions deletion.Repository
	close     func()
}

// openStore connects to the configured backend and applies the schema.
func openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		return &repositories{
			players:   postgres.NewPlayerRepository(pool),
			catalogs:  postgres.NewCatalogRepository(pool),
			segments:  postgres.NewSegmentRepository(pool),
			requests:  postgres.NewRequestRepository(pool),
			deletions: postgres.NewDeletionRepository(pool),
			close:     pool.Close,
		}, nil

	default:
		store, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return &repositories{
			players:   sqlite.NewPlayerRepository(store),
			catalogs:  sqlite.NewCatalogRepository(store),
			segments:  sqlite.NewSegmentRepository(store),
			requests:  sqlite.NewRequestRepository(store),
			deletions: sqlite.NewDeletionRepository(store),
			close:     func() { _ = store.Close() },
		}, nil
	}
}
