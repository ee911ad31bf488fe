// Package poller drives the bot status polling loop. On a fixed interval it
// selects a batch of meetings with outstanding bots, asks the bot service for
// each bot's latest status, and reconciles the stored record: persisting
// status progress, downloading transcripts for finished calls, and marking
// terminal outcomes.
package poller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

// Store is the meeting persistence the poller needs.
type Store interface {
	FindEligible(ctx context.Context, maxAttempts, limit int) ([]meeting.Meeting, error)
	RecordPoll(ctx context.Context, id string, status meeting.BotStatus) error
	RecordPollError(ctx context.Context, id string, errMsg string) error
	SaveTranscript(ctx context.Context, id string, raw json.RawMessage, text string, videoURL *string) error
	MarkNoTranscript(ctx context.Context, id string) error
	MarkProcessingFailed(ctx context.Context, id string, errMsg string) error
}

// BotClient is the slice of the bot service API the poller needs.
type BotClient interface {
	GetBot(ctx context.Context, botID string) (*recall.Bot, error)
	GetTranscript(ctx context.Context, botID string) ([]transcript.Segment, error)
}

// Publisher receives lifecycle notifications from the polling loop.
type Publisher interface {
	MeetingCompleted(ctx context.Context, m *meeting.Meeting, status meeting.BotStatus)
	MeetingFailed(ctx context.Context, m *meeting.Meeting, reason string)
	CycleCompleted(ctx context.Context, result CycleResult)
}

// NopPublisher discards all notifications.
type NopPublisher struct{}

func (NopPublisher) MeetingCompleted(context.Context, *meeting.Meeting, meeting.BotStatus) {}
func (NopPublisher) MeetingFailed(context.Context, *meeting.Meeting, string)               {}
func (NopPublisher) CycleCompleted(context.Context, CycleResult)                           {}

// Outcome describes what one poll of one meeting did. The settled outcomes
// (completed, no_transcript, failed) are reported only once the matching
// state was persisted; a failed write is a poll_error and the meeting stays
// eligible for the next cycle.
type Outcome string

const (
	OutcomeProgress     Outcome = "progress"
	OutcomeCompleted    Outcome = "completed"
	OutcomeNoTranscript Outcome = "no_transcript"
	OutcomeFailed       Outcome = "failed"
	OutcomePollError    Outcome = "poll_error"
)

// CycleResult summarizes one polling cycle.
type CycleResult struct {
	Selected  int           `json:"selected"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}
