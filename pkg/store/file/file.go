// Package file persists explored points to a single gob-encoded file.
// Every write rewrites the file through a temporary sibling and a rename,
// so a crash leaves either the old or the new contents.
package file

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/1F47E/geo-explored/pkg/models"
)

// ErrClosed is returned by every call after Close
var ErrClosed = errors.New("file store closed")

// fileData represents the serializable form of the store. Count is checked
// against Points on load.
type fileData struct {
	Points []models.GeoPoint
	Count  int64
}

type Store struct {
	path string

	mu     sync.Mutex
	points []models.GeoPoint
	closed bool
}

// Open loads path if it exists; a missing file is an empty store
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	s := &Store{path: path}
	points, err := s.load()
	if err != nil {
		return nil, err
	}
	s.points = points
	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() ([]models.GeoPoint, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data fileData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	if data.Count != int64(len(data.Points)) {
		return nil, fmt.Errorf("failed to decode data: header says %d points, found %d", data.Count, len(data.Points))
	}
	return data.Points, nil
}

func (s *Store) save(points []models.GeoPoint) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	data := fileData{Points: points, Count: int64(len(points))}
	if err := gob.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
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
	if len(points) == 0 {
		return nil
	}

	next := make([]models.GeoPoint, 0, len(s.points)+len(points))
	next = append(next, s.points...)
	next = append(next, points...)
	if err := s.save(next); err != nil {
		return err
	}
	s.points = next
	return nil
}

func (s *Store) SelectAll(ctx context.Context) ([]models.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

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
	if err := s.save(nil); err != nil {
		return err
	}
	s.points = nil
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
