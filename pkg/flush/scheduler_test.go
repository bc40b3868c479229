package flush

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingFlusher struct {
	calls atomic.Int64
	fail  atomic.Bool
}

func (f *countingFlusher) Flush(ctx context.Context) error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errors.New("store down")
	}
	return nil
}

func TestSchedulerTicks(t *testing.T) {
	target := &countingFlusher{}
	s := New(target, 10*time.Millisecond, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	target := &countingFlusher{}
	target.fail.Store(true)
	s := New(target, 10*time.Millisecond, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerTrigger(t *testing.T) {
	target := &countingFlusher{}
	s := New(target, time.Hour, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	s.Trigger()
	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	target := &countingFlusher{}
	s := New(target, 5*time.Millisecond, zerolog.Nop())

	s.Stop()
	s.Start(context.Background())
	s.Start(context.Background())
	s.Stop()
	s.Stop()

	calls := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, target.calls.Load(), "no cycles after Stop")
}

func TestSchedulerStopsWithParentContext(t *testing.T) {
	target := &countingFlusher{}
	s := New(target, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	// Stop must not block once the loop already exited
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after context cancellation")
	}
}

func TestDefaultInterval(t *testing.T) {
	s := New(&countingFlusher{}, 0, zerolog.Nop())
	assert.Equal(t, DefaultInterval, s.Interval())
}
