// Package redisgeo stores explored points in a Redis GEO sorted set.
//
// Each member is the JSON encoding of the point, so exact coordinates and
// metadata survive the geohash rounding Redis applies to positions. Redis
// cannot index latitudes beyond ±85.05112878; those points go to a plain set
// next to the GEO key.
package redisgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/1F47E/geo-explored/pkg/config"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	maxGeoLat = 85.05112878
	batchSize = 500
	kmPerDeg  = 111.32
	// boxes wider than this are answered with a full scan
	maxSearchDeg = 60.0
)

type Store struct {
	client *redis.Client
	key    string
}

// New connects to Redis and checks the connection
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return NewFromClient(client, cfg.Key), nil
}

// NewFromClient uses an existing client; key names the GEO set
func NewFromClient(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) polarKey() string {
	return s.key + ":polar"
}

func encode(p models.GeoPoint) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode point: %w", err)
	}
	return string(b), nil
}

func decode(member string) (models.GeoPoint, error) {
	var p models.GeoPoint
	if err := json.Unmarshal([]byte(member), &p); err != nil {
		return p, fmt.Errorf("failed to decode member %q: %w", member, err)
	}
	return p, nil
}

func (s *Store) Insert(ctx context.Context, p models.GeoPoint) error {
	return s.InsertBatch(ctx, []models.GeoPoint{p})
}

func (s *Store) InsertBatch(ctx context.Context, points []models.GeoPoint) error {
	pipe := s.client.TxPipeline()

	locations := make([]*redis.GeoLocation, 0, batchSize)
	queued := false
	for _, p := range points {
		member, err := encode(p)
		if err != nil {
			return err
		}
		if math.Abs(p.Lat) > maxGeoLat {
			pipe.SAdd(ctx, s.polarKey(), member)
			queued = true
			continue
		}
		locations = append(locations, &redis.GeoLocation{Name: member, Longitude: p.Lon, Latitude: p.Lat})
		if len(locations) == batchSize {
			pipe.GeoAdd(ctx, s.key, locations...)
			locations = make([]*redis.GeoLocation, 0, batchSize)
			queued = true
		}
	}
	if len(locations) > 0 {
		pipe.GeoAdd(ctx, s.key, locations...)
		queued = true
	}
	if !queued {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	return nil
}

// SelectAll returns every member. Undecodable members are skipped and
// reported after the rest have been collected.
func (s *Store) SelectAll(ctx context.Context) ([]models.GeoPoint, error) {
	members, err := s.client.ZRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	polar, err := s.client.SMembers(ctx, s.polarKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read polar points: %w", err)
	}
	return decodeAll(append(members, polar...))
}

// SelectInBox asks Redis for a box around the centre that covers the
// requested one and filters the answer exactly
func (s *Store) SelectInBox(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error) {
	if box.East()-box.West() > maxSearchDeg || box.North()-box.South() > maxSearchDeg {
		points, err := s.SelectAll(ctx)
		return models.FilterBox(points, box), err
	}

	centerLat := (box.South() + box.North()) / 2
	centerLon := (box.West() + box.East()) / 2

	// width is measured where the box is widest, the parallel closest to the equator
	widestLat := 0.0
	if box.South() > 0 {
		widestLat = box.South()
	} else if box.North() < 0 {
		widestLat = box.North()
	}
	width := (box.East()-box.West())*kmPerDeg*math.Cos(widestLat*math.Pi/180)*1.1 + 1
	height := (box.North()-box.South())*kmPerDeg*1.1 + 1

	members, err := s.client.GeoSearch(ctx, s.key, &redis.GeoSearchQuery{
		Longitude: centerLon,
		Latitude:  math.Max(-maxGeoLat, math.Min(maxGeoLat, centerLat)),
		BoxWidth:  width,
		BoxHeight: height,
		BoxUnit:   "km",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	if box.North() > maxGeoLat || box.South() < -maxGeoLat {
		polar, err := s.client.SMembers(ctx, s.polarKey()).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read polar points: %w", err)
		}
		members = append(members, polar...)
	}

	points, err := decodeAll(members)
	return models.FilterBox(points, box), err
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, s.polarKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func decodeAll(members []string) ([]models.GeoPoint, error) {
	points := make([]models.GeoPoint, 0, len(members))
	var firstErr error
	for _, member := range members {
		p, err := decode(member)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		points = append(points, p)
	}
	return points, firstErr
}
