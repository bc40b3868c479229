package api

import (
	"context"

	"github.com/1F47E/geo-explored/pkg/explored"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Explorer is the index as seen by the HTTP handlers
type Explorer interface {
	Insert(p models.GeoPoint) (explored.InsertResult, error)
	InsertBatch(points []models.GeoPoint) explored.BatchResult
	Query(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error)
	All(ctx context.Context) ([]models.GeoPoint, error)
	IsExplored(ctx context.Context, p models.GeoPoint) (bool, error)
	Flush(ctx context.Context) error
	Stats() explored.Stats
}

// Dependencies holds everything the handlers need. NATS is optional.
type Dependencies struct {
	Index   Explorer
	NATS    *nats.Conn
	Log     zerolog.Logger
	Version string
}
