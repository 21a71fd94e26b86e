package core

import (
	"context"
	"fmt"

	"marinecore/internal/blob"
	"marinecore/internal/config"
	"marinecore/internal/infra/persistence/memory"
	"marinecore/internal/infra/persistence/objectstore"
	"marinecore/internal/infra/persistence/postgres"
	"marinecore/internal/infra/persistence/sqlite"
	"marinecore/pkg/domain"
)

// OpenPersistentStore selects a backend from cfg.Driver:
//
//	memory:   in-memory only (tests / ephemeral)
//	sqlite:   embedded sqlite file at cfg.SQLitePath
//	postgres: PostgreSQL server at cfg.PostgresDSN
//	blob:     snapshot objects in the blob store described by cfg.Blob
//
// Durable stores implement io.Closer; callers should close them on shutdown.
func OpenPersistentStore(ctx context.Context, cfg config.Storage, opts ...memory.Option) (domain.PersistentStore, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		return memory.NewStore(opts...), nil
	case config.StorageSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageBlob:
		bs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		s, err := objectstore.NewStore(ctx, bs, cfg.Blob.Prefix, objectstore.WithMemoryOptions(opts...))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
