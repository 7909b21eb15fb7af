package store

import (
	"context"
	"fmt"
	"io"

	"github.com/desertthunder/topgenres/internal/shared"
)

// Open builds the [KeyValue] selected by cfg.Store.Backend.
//
// The returned closer releases the database or Redis connection; it is a no-op for the memory backend.
func Open(ctx context.Context, cfg *shared.Config) (KeyValue, io.Closer, error) {
	switch cfg.Store.Backend {
	case "memory":
		return NewMemoryKV(), nopCloser{}, nil
	case "sqlite", "":
		db, err := shared.NewDatabase(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := shared.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if cfg.Database.MaxOpenConns > 0 {
			shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		}
		return NewSQLiteKV(db), db, nil
	case "redis":
		kv, client, err := NewRedisKVFromURL(cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		return kv, client, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, cfg.Store.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
