// Package memory is a process-local store, used by tests and the "memory" driver.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/1F47E/geo-explored/pkg/models"
)

// ErrClosed is returned by every call after Close
var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.RWMutex
	points []models.GeoPoint
	closed bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Insert(ctx context.Context, p models.GeoPoint) error {
	return s.InsertBatch(ctx, []models.GeoPoint{p})
}

func (s *Store) InsertBatch(ctx context.Context, points []models.GeoPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.points = append(s.points, points...)
	return nil
}

func (s *Store) SelectAll(ctx context.Context) ([]models.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	out := make([]models.GeoPoint, len(s.points))
	copy(out, s.points)
	return out, nil
}

func (s *Store) SelectInBox(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error) {
	points, err := s.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterBox(points, box), nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.points = nil
	return nil
}

// Len returns the number of stored rows
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
