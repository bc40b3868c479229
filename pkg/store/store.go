// Package store defines the durable storage contract for confirmed explored
// points and opens the configured implementation.
package store

import (
	"context"
	"fmt"

	"github.com/1F47E/geo-explored/pkg/config"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/store/file"
	"github.com/1F47E/geo-explored/pkg/store/memory"
	"github.com/1F47E/geo-explored/pkg/store/postgres"
	"github.com/1F47E/geo-explored/pkg/store/redisgeo"
)

// Store is durable append/scan storage for explored points. Stores do not
// deduplicate; the index re-applies its own invariant when hydrating.
type Store interface {
	Insert(ctx context.Context, p models.GeoPoint) error
	InsertBatch(ctx context.Context, points []models.GeoPoint) error
	SelectAll(ctx context.Context) ([]models.GeoPoint, error)
	// SelectInBox may return a superset filtered client-side by the caller.
	SelectInBox(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error)
	DeleteAll(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*file.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*redisgeo.Store)(nil)
)

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.Open(cfg.Path)
	case "postgres":
		return postgres.New(ctx, cfg.Postgres.DSN())
	case "redis":
		return redisgeo.New(ctx, cfg.Redis)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
