package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
)

// MaxBatchSize caps how many meetings one cycle may poll. The bot service
// rate limits aggressively, so batches stay in single digits.
const MaxBatchSize = 9

// BatchConfig controls how a cycle selects and paces its work.
type BatchConfig struct {
	// MaxAttempts excludes meetings polled at least this many times.
	MaxAttempts int

	// BatchSize is how many meetings to poll per cycle, 1 to MaxBatchSize.
	BatchSize int

	// ItemDelay is the pause between consecutive meetings in a batch.
	ItemDelay time.Duration
}

// Validate checks the batch configuration.
func (c BatchConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max poll attempts must be positive, got %d", errors.ErrValidation, c.MaxAttempts)
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d, got %d", errors.ErrValidation, MaxBatchSize, c.BatchSize)
	}
	if c.ItemDelay < 0 {
		return fmt.Errorf("%w: item delay must not be negative", errors.ErrValidation)
	}
	return nil
}

// Batcher runs one polling cycle: select the batch, reconcile each meeting
// in order, and pace the requests.
type Batcher struct {
	store      Store
	reconciler *Reconciler
	config     BatchConfig
	logger     logging.Logger
	metrics    *Metrics

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration)
}

// NewBatcher builds a Batcher. The config must be valid.
func NewBatcher(store Store, reconciler *Reconciler, config BatchConfig, logger logging.Logger, metrics *Metrics) (*Batcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Batcher{
		store:      store,
		reconciler: reconciler,
		config:     config,
		logger:     logger,
		metrics:    metrics,
		sleep:      sleepCtx,
	}, nil
}

// RunCycle selects the oldest-polled eligible meetings and reconciles each
// one. A failure on one meeting is recorded and the cycle moves on; only a
// failure to select the batch aborts the cycle.
func (b *Batcher) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	meetings, err := b.store.FindEligible(ctx, b.config.MaxAttempts, b.config.BatchSize)
	if err != nil {
		return CycleResult{}, fmt.Errorf("selecting polling batch: %w", err)
	}

	result := CycleResult{Selected: len(meetings)}
	if len(meetings) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}
	b.logger.Debug("polling batch selected", logging.F("count", len(meetings)))

	for i := range meetings {
		if i > 0 && b.config.ItemDelay > 0 {
			b.sleep(ctx, b.config.ItemDelay)
		}
		if ctx.Err() != nil {
			break
		}

		m := &meetings[i]
		outcome, err := b.reconciler.Reconcile(ctx, m)
		if b.metrics != nil {
			b.metrics.PollsTotal.WithLabelValues(string(outcome)).Inc()
		}
		switch outcome {
		case OutcomeCompleted, OutcomeNoTranscript:
			result.Completed++
		case OutcomeFailed:
			result.Failed++
		case OutcomePollError:
			result.Errors++
		}
		if err != nil {
			b.logger.Warn("poll failed, continuing batch",
				logging.F("meeting_id", m.ID),
				logging.Err(err))
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
