package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

func TestBatchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  BatchConfig
		wantErr bool
	}{
		{"valid", BatchConfig{MaxAttempts: 120, BatchSize: 5, ItemDelay: 500 * time.Millisecond}, false},
		{"minimum batch", BatchConfig{MaxAttempts: 1, BatchSize: 1}, false},
		{"maximum batch", BatchConfig{MaxAttempts: 1, BatchSize: MaxBatchSize}, false},
		{"zero batch", BatchConfig{MaxAttempts: 120, BatchSize: 0}, true},
		{"batch too large", BatchConfig{MaxAttempts: 120, BatchSize: 10}, true},
		{"zero attempts", BatchConfig{MaxAttempts: 0, BatchSize: 5}, true},
		{"negative delay", BatchConfig{MaxAttempts: 120, BatchSize: 5, ItemDelay: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newTestBatcher(t *testing.T, store *fakeStore, client *fakeBotClient, config BatchConfig) (*Batcher, *int) {
	t.Helper()
	reconciler := NewReconciler(store, client, nil, nil)
	batcher, err := NewBatcher(store, reconciler, config, nil, nil)
	require.NoError(t, err)

	sleeps := 0
	batcher.sleep = func(context.Context, time.Duration) { sleeps++ }
	return batcher, &sleeps
}

func TestRunCycleEmptyBatch(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 5})

	result, err := batcher.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Selected)
}

func TestRunCyclePacesBetweenItems(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	for _, id := range []string{"m1", "m2", "m3"} {
		store.add(id, "bot-"+id, nil)
		client.setStatus("bot-"+id, "in_call_recording")
	}
	batcher, sleeps := newTestBatcher(t, store, client, BatchConfig{
		MaxAttempts: 120, BatchSize: 5, ItemDelay: 250 * time.Millisecond,
	})

	result, err := batcher.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Selected)
	// Delay goes between items, not before the first.
	assert.Equal(t, 2, *sleeps)
}

func TestRunCycleIsolatesItemFailures(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	store.add("m1", "bot-m1", nil)
	store.add("m2", "bot-m2", nil)
	client.botErr["bot-m1"] = errors.New("boom")
	client.setStatus("bot-m2", "in_call_recording")

	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 5})
	result, err := batcher.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Selected)
	assert.Equal(t, 1, result.Errors)

	// The failure on m1 did not keep m2 from being polled.
	got := store.get("m2")
	require.NotNil(t, got.BotStatus)
	assert.Equal(t, meeting.StatusInCallRecording, *got.BotStatus)
	assert.Equal(t, 1, got.PollAttempts)
}

func TestRunCycleSaveFailureDoesNotCountAsCompleted(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	store.add("m1", "bot-m1", nil)
	client.setStatus("bot-m1", "done")
	client.setTranscript("bot-m1", []transcript.Segment{
		{Speaker: "Alice", Text: "hello", StartTime: ptrTo(1.0)},
	})
	store.failSaveTranscript = errors.New("disk full")

	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 5})
	result, err := batcher.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Selected)
	assert.Zero(t, result.Completed)
	assert.Equal(t, 1, result.Errors)
}

func TestRunCycleSelectionFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.failFindEligible = errors.New("connection refused")
	client := newFakeBotClient()

	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 5})
	_, err := batcher.RunCycle(context.Background())
	assert.Error(t, err)
}

func TestRunCycleHonorsBatchSize(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		store.add(id, "bot-"+id, nil)
		client.setStatus("bot-"+id, "joining_call")
	}

	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 2})
	result, err := batcher.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Selected)
}

// Three cycles walk a meeting from bot dispatch to a stored transcript.
func TestPollingLifecycle(t *testing.T) {
	store := newFakeStore()
	client := newFakeBotClient()
	store.add("m1", "bot-1", nil)

	batcher, _ := newTestBatcher(t, store, client, BatchConfig{MaxAttempts: 120, BatchSize: 5})
	ctx := context.Background()

	client.setStatus("bot-1", "joining_call")
	_, err := batcher.RunCycle(ctx)
	require.NoError(t, err)
	got := store.get("m1")
	assert.Equal(t, meeting.StatusJoiningCall, *got.BotStatus)

	client.setStatus("bot-1", "joining_call", "in_call_recording")
	_, err = batcher.RunCycle(ctx)
	require.NoError(t, err)
	got = store.get("m1")
	assert.Equal(t, meeting.StatusInCallRecording, *got.BotStatus)

	client.setStatus("bot-1", "joining_call", "in_call_recording", "call_ended")
	client.setTranscript("bot-1", []transcript.Segment{
		{Speaker: "Alice", Text: "let's wrap up", StartTime: ptrTo(60.0)},
		{Speaker: "Bob", Text: "sounds good", StartTime: ptrTo(65.0)},
	})
	result, err := batcher.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)

	got = store.get("m1")
	assert.Equal(t, meeting.StatusCompleted, *got.BotStatus)
	assert.Equal(t, 3, got.PollAttempts)
	require.NotNil(t, got.TranscriptText)
	assert.NotEmpty(t, *got.TranscriptText)
	assert.NotNil(t, got.CompletedAt)

	// A completed meeting drops out of the next batch.
	next, err := store.FindEligible(ctx, 120, 9)
	require.NoError(t, err)
	assert.Empty(t, next)
}
