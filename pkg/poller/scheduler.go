package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/logging"
)

// Scheduler runs polling cycles on a fixed interval. Construct one per
// process and share it; Start and Stop are idempotent and safe for
// concurrent use.
type Scheduler struct {
	batcher   *Batcher
	publisher Publisher
	interval  time.Duration
	logger    logging.Logger
	metrics   *Metrics

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	cycles  sync.WaitGroup

	// cycleInProgress guards against overlapping cycles. A tick that fires
	// while a cycle is still running is dropped, never queued.
	cycleInProgress atomic.Bool
}

// NewScheduler builds a Scheduler around a Batcher. A nil publisher
// discards cycle notifications.
func NewScheduler(batcher *Batcher, publisher Publisher, interval time.Duration, logger logging.Logger, metrics *Metrics) *Scheduler {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scheduler{
		batcher:   batcher,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the polling loop. The first cycle runs immediately, then
// every interval. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Debug("polling already running, start ignored")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	s.logger.Info("polling started", logging.F("interval", s.interval.String()))
	go s.loop(ctx, s.stopCh, s.done)
}

// Stop halts the polling loop and waits for the in-flight cycle to return.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.cycles.Wait()
	s.logger.Info("polling stopped")
}

func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.spawnCycle(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawnCycle(ctx)
		}
	}
}

// spawnCycle dispatches a cycle without blocking the tick loop, so a slow
// cycle is observed (and skipped) by later ticks instead of delaying them.
func (s *Scheduler) spawnCycle(ctx context.Context) {
	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()
		s.runCycle(ctx)
	}()
}

// runCycle executes one cycle if none is in flight. Errors and panics are
// logged and contained; a bad cycle never stops the loop.
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.cycleInProgress.CompareAndSwap(false, true) {
		s.logger.Warn("previous polling cycle still running, skipping this one")
		if s.metrics != nil {
			s.metrics.CyclesSkippedTotal.Inc()
		}
		return
	}
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("polling cycle panicked",
				logging.F("panic", fmt.Sprint(v)),
				logging.F("stack", string(debug.Stack())))
		}
		s.cycleInProgress.Store(false)
	}()

	result, err := s.batcher.RunCycle(ctx)
	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.CycleDuration.Observe(result.Duration.Seconds())
	}
	if err != nil {
		s.logger.Error("polling cycle failed", logging.Err(err))
		return
	}
	if result.Selected > 0 {
		s.logger.Info("polling cycle finished",
			logging.F("selected", result.Selected),
			logging.F("completed", result.Completed),
			logging.F("failed", result.Failed),
			logging.F("errors", result.Errors),
			logging.F("duration", result.Duration.String()))
	}
	s.publisher.CycleCompleted(ctx, result)
}
