// Package explored implements the explored-area index: an in-memory set of
// visited points, deduplicated by proximity, hydrated once from a persistent
// store and written back to it in batches.
package explored

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1F47E/geo-explored/pkg/flush"
	"github.com/1F47E/geo-explored/pkg/grid"
	"github.com/1F47E/geo-explored/pkg/metrics"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/1F47E/geo-explored/pkg/proximity"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// hydrated points are merged in chunks so inserts can interleave
const mergeChunk = 1024

// Store is the part of the persistent store the index needs
type Store interface {
	InsertBatch(ctx context.Context, points []models.GeoPoint) error
	SelectAll(ctx context.Context) ([]models.GeoPoint, error)
}

// InsertResult is the outcome of a single Insert
type InsertResult int

const (
	Rejected InsertResult = iota
	Added
	AlreadyExplored
)

func (r InsertResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadyExplored:
		return "already_explored"
	}
	return "rejected"
}

// BatchResult counts the outcomes of InsertBatch
type BatchResult struct {
	Added           int `json:"added"`
	AlreadyExplored int `json:"already_explored"`
	Rejected        int `json:"rejected"`
}

// Stats is a point-in-time view of the index
type Stats struct {
	Points   int  `json:"points"`
	Pending  int  `json:"pending"`
	Hydrated bool `json:"hydrated"`
}

type Option func(*Index)

// WithSet replaces the default grid set
func WithSet(s Set) Option {
	return func(x *Index) {
		x.set = s
	}
}

// WithFlushInterval sets the period of the background flush
func WithFlushInterval(d time.Duration) Option {
	return func(x *Index) {
		x.interval = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(x *Index) {
		x.log = l
	}
}

// Index is safe for concurrent use. One mutex guards the set and the
// pending buffer; store I/O never runs while it is held.
type Index struct {
	store    Store
	log      zerolog.Logger
	interval time.Duration

	mu      sync.RWMutex
	set     Set
	pending []models.GeoPoint

	hydrateMu sync.Mutex
	hydrated  atomic.Bool

	scheduler *flush.Scheduler
}

// New creates an index backed by store. The background flush does not run
// until Start is called.
func New(store Store, opts ...Option) *Index {
	x := &Index{
		store:    store,
		log:      log.Logger,
		interval: flush.DefaultInterval,
		set:      grid.New(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.log = x.log.With().Str("component", "index").Logger()
	x.scheduler = flush.New(x, x.interval, x.log)
	return x
}

// Insert adds p unless an equivalent point is already explored.
// Malformed points are rejected with ErrMalformedPoint.
func (x *Index) Insert(p models.GeoPoint) (InsertResult, error) {
	if err := p.Validate(); err != nil {
		metrics.InsertsTotal.WithLabelValues(Rejected.String()).Inc()
		return Rejected, err
	}

	x.mu.Lock()
	res := x.insertLocked(p)
	x.updateGauges()
	x.mu.Unlock()

	metrics.InsertsTotal.WithLabelValues(res.String()).Inc()
	return res, nil
}

// InsertBatch inserts points in order. Malformed points are counted and skipped.
func (x *Index) InsertBatch(points []models.GeoPoint) BatchResult {
	var res BatchResult
	valid := make([]models.GeoPoint, 0, len(points))
	for _, p := range points {
		if err := p.Validate(); err != nil {
			res.Rejected++
			continue
		}
		valid = append(valid, p)
	}

	x.mu.Lock()
	for _, p := range valid {
		if x.insertLocked(p) == Added {
			res.Added++
		} else {
			res.AlreadyExplored++
		}
	}
	x.updateGauges()
	x.mu.Unlock()

	metrics.InsertsTotal.WithLabelValues(Added.String()).Add(float64(res.Added))
	metrics.InsertsTotal.WithLabelValues(AlreadyExplored.String()).Add(float64(res.AlreadyExplored))
	metrics.InsertsTotal.WithLabelValues(Rejected.String()).Add(float64(res.Rejected))
	return res
}

func (x *Index) insertLocked(p models.GeoPoint) InsertResult {
	if _, ok := x.set.Find(p); ok {
		return AlreadyExplored
	}
	x.set.Add(p)
	x.pending = append(x.pending, p)
	return Added
}

// OnFix is the push callback for location feeds
func (x *Index) OnFix(p models.GeoPoint) {
	if _, err := x.Insert(p); err != nil {
		x.log.Warn().Err(err).Float64("lat", p.Lat).Float64("lon", p.Lon).Msg("fix rejected")
	}
}

// Hydrate merges the persistent store into the set once. Stored points are
// not marked pending. On a store error whatever was read is still merged
// and the next call retries.
func (x *Index) Hydrate(ctx context.Context) error {
	if x.hydrated.Load() {
		return nil
	}

	x.hydrateMu.Lock()
	defer x.hydrateMu.Unlock()
	if x.hydrated.Load() {
		return nil
	}

	start := time.Now()
	points, err := x.store.SelectAll(ctx)
	merged := x.merge(points)

	if err != nil {
		metrics.HydrationsTotal.WithLabelValues("error").Inc()
		x.log.Warn().Err(err).Int("read", len(points)).Int("merged", merged).Msg("hydration failed")
		return fmt.Errorf("%w: hydrate: %w", ErrStorageUnavailable, err)
	}

	x.hydrated.Store(true)
	metrics.HydrationsTotal.WithLabelValues("success").Inc()
	x.log.Info().
		Int("read", len(points)).
		Int("merged", merged).
		Dur("took", time.Since(start)).
		Msg("index hydrated")
	return nil
}

func (x *Index) merge(points []models.GeoPoint) int {
	merged := 0
	for start := 0; start < len(points); start += mergeChunk {
		end := min(start+mergeChunk, len(points))

		x.mu.Lock()
		for _, p := range points[start:end] {
			if p.Validate() != nil {
				continue
			}
			if _, ok := x.set.Find(p); ok {
				continue
			}
			x.set.Add(p)
			merged++
		}
		x.updateGauges()
		x.mu.Unlock()
	}
	return merged
}

// Query returns every explored point inside box, hydrating on first use
func (x *Index) Query(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if err := x.Hydrate(ctx); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.set.Search(box), nil
}

// All returns every explored point, hydrating on first use
func (x *Index) All(ctx context.Context) ([]models.GeoPoint, error) {
	if err := x.Hydrate(ctx); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.set.Points(), nil
}

// IsExplored reports whether a point equivalent to p has been explored
func (x *Index) IsExplored(ctx context.Context, p models.GeoPoint) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	if err := x.Hydrate(ctx); err != nil {
		return false, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.set.Find(p)
	return ok, nil
}

// Clear empties the in-memory set. The store, the pending buffer and the
// hydration flag are left alone.
func (x *Index) Clear() {
	x.mu.Lock()
	x.set.Reset()
	x.updateGauges()
	x.mu.Unlock()
	x.log.Info().Msg("index cleared")
}

// Flush writes the pending buffer to the store. The buffer is swapped out
// under the index lock so concurrent inserts land in a fresh buffer; on
// failure the snapshot is put back in front of them.
func (x *Index) Flush(ctx context.Context) error {
	x.mu.Lock()
	if len(x.pending) == 0 {
		x.mu.Unlock()
		return nil
	}
	snapshot := x.pending
	x.pending = nil
	x.updateGauges()
	x.mu.Unlock()

	start := time.Now()
	err := x.store.InsertBatch(ctx, snapshot)
	metrics.FlushDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		x.mu.Lock()
		x.pending = append(snapshot, x.pending...)
		x.updateGauges()
		x.mu.Unlock()

		metrics.FlushesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: flush %d points: %w", ErrStorageUnavailable, len(snapshot), err)
	}

	metrics.FlushesTotal.WithLabelValues("success").Inc()
	metrics.FlushedPointsTotal.Add(float64(len(snapshot)))
	x.log.Debug().
		Int("points", len(snapshot)).
		Dur("took", time.Since(start)).
		Msg("pending points flushed")
	return nil
}

// Start runs the background flush until ctx is done or Shutdown is called
func (x *Index) Start(ctx context.Context) {
	x.scheduler.Start(ctx)
}

// TriggerFlush asks the background flush to run now
func (x *Index) TriggerFlush() {
	x.scheduler.Trigger()
}

// Shutdown stops the background flush and writes whatever is still pending.
// The store is owned by the caller and stays open.
func (x *Index) Shutdown(ctx context.Context) error {
	x.scheduler.Stop()
	if err := x.Flush(ctx); err != nil {
		x.log.Error().Err(err).Int("pending", x.Stats().Pending).Msg("final flush failed")
		return err
	}
	return nil
}

func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{
		Points:   x.set.Len(),
		Pending:  len(x.pending),
		Hydrated: x.hydrated.Load(),
	}
}

// Len returns the number of points in memory
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.set.Len()
}

// Dirty reports whether points are waiting to be flushed
func (x *Index) Dirty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.pending) > 0
}

// CheckInvariant returns ErrConcurrentMutation if two members are equivalent
func (x *Index) CheckInvariant() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, p := range x.set.Points() {
		n := 0
		for _, box := range proximity.SearchBoxes(p) {
			for _, q := range x.set.Search(box) {
				if proximity.Equivalent(p, q) {
					n++
				}
			}
		}
		if n > 1 {
			return fmt.Errorf("%w: %d members equivalent to (%f, %f)", ErrConcurrentMutation, n, p.Lat, p.Lon)
		}
	}
	return nil
}

// updateGauges must be called with mu held
func (x *Index) updateGauges() {
	metrics.Points.Set(float64(x.set.Len()))
	metrics.PendingPoints.Set(float64(len(x.pending)))
}
