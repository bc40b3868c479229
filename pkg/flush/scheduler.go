// Package flush runs the periodic write-back of pending explored points.
package flush

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is used when a non-positive interval is configured
const DefaultInterval = 15 * time.Second

// Flusher drains its pending buffer into durable storage. A clean Flusher
// returns nil without doing any work.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler calls Flush on a fixed interval until stopped. A failed cycle is
// logged and retried on the next tick.
type Scheduler struct {
	target   Flusher
	interval time.Duration
	log      zerolog.Logger

	trigger chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped scheduler
func New(target Flusher, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		target:   target,
		interval: interval,
		log:      log.With().Str("component", "flush").Logger(),
		trigger:  make(chan struct{}, 1),
	}
}

// Interval returns the tick period
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the background loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)
	s.log.Debug().Dur("interval", s.interval).Msg("flush scheduler started")
}

// Stop cancels the loop and waits for an in-flight cycle to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Debug().Msg("flush scheduler stopped")
}

// Trigger asks the running loop for an immediate cycle. Requests made while
// one is already queued are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		case <-s.trigger:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	start := time.Now()
	if err := s.target.Flush(ctx); err != nil {
		s.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("flush failed, will retry")
		return
	}
	s.log.Trace().Dur("elapsed", time.Since(start)).Msg("flush cycle done")
}
