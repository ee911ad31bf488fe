// Package meeting defines the Meeting record and the bot status vocabulary
// shared by the polling engine, the record store, and the HTTP API.
package meeting

import (
	"encoding/json"
	"time"
)

// BotStatus is the lifecycle status of a dispatched meeting bot. The values
// are taken verbatim from the remote bot API's vocabulary so that no
// translation layer can drift out of sync with it.
type BotStatus string

const (
	StatusUnknown            BotStatus = "unknown"
	StatusReady              BotStatus = "ready"
	StatusJoiningCall        BotStatus = "joining_call"
	StatusInWaitingRoom      BotStatus = "in_waiting_room"
	StatusInCallNotRecording BotStatus = "in_call_not_recording"
	StatusInCallRecording    BotStatus = "in_call_recording"
	StatusDone               BotStatus = "done"
	StatusCallEnded          BotStatus = "call_ended"
	StatusCompleted          BotStatus = "completed"
	StatusNoTranscript       BotStatus = "no_transcript"
	StatusProcessingFailed   BotStatus = "processing_failed"
	StatusCancelled          BotStatus = "cancelled"
	StatusFailed             BotStatus = "failed"
)

// ActiveStatuses are the remote statuses under which a bot is still working
// a call and must keep being polled.
func ActiveStatuses() []BotStatus {
	return []BotStatus{
		StatusReady,
		StatusJoiningCall,
		StatusInWaitingRoom,
		StatusInCallNotRecording,
		StatusInCallRecording,
	}
}

// IsActive reports whether the status is one of the non-terminal remote
// statuses that keep a meeting in the polling set.
func (s BotStatus) IsActive() bool {
	switch s {
	case StatusReady, StatusJoiningCall, StatusInWaitingRoom,
		StatusInCallNotRecording, StatusInCallRecording:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the meeting's lifecycle. No
// transition ever moves a meeting out of a terminal status.
func (s BotStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusNoTranscript, StatusProcessingFailed,
		StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// TriggersTranscript reports whether observing this status means the call is
// over and the transcript should be retrieved.
func (s BotStatus) TriggersTranscript() bool {
	return s == StatusDone || s == StatusCallEnded
}

// NormalizeStatus maps a raw remote status code onto BotStatus. An empty
// code (no status change observed yet) becomes StatusUnknown; any other
// code is preserved as-is, including codes outside the known vocabulary.
func NormalizeStatus(code string) BotStatus {
	if code == "" {
		return StatusUnknown
	}
	return BotStatus(code)
}

// Meeting is the unit of work for the polling engine: one calendar event a
// user enabled the notetaker for, with its dispatched bot's observed state.
type Meeting struct {
	// ID uniquely identifies the meeting record.
	ID string `json:"id"`

	// CalendarEventID ties the record back to the calendar event it was
	// created from.
	CalendarEventID string `json:"calendar_event_id"`

	// Title is the calendar event summary.
	Title string `json:"title"`

	// MeetingURL is the conference URL the bot joins.
	MeetingURL string `json:"meeting_url"`

	// Platform is the conference provider (meet, zoom, teams, webex, ...).
	Platform string `json:"platform,omitempty"`

	// StartTime and EndTime come from the calendar event.
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Attendees are the calendar event attendee addresses.
	Attendees []string `json:"attendees,omitempty"`

	// NotetakerEnabled records whether the user asked for a bot on this
	// meeting. Disabling does not delete the record.
	NotetakerEnabled bool `json:"notetaker_enabled"`

	// ExternalBotID is the remote bot's identifier. Nil until a bot is
	// dispatched; reset to nil on cancellation.
	ExternalBotID *string `json:"external_bot_id,omitempty"`

	// BotStatus is the last observed remote status. Nil means a bot was
	// requested but no status has been observed yet.
	BotStatus *BotStatus `json:"bot_status,omitempty"`

	// PollAttempts counts poll attempts (success or failure), bounded by
	// the configured maximum.
	PollAttempts int `json:"poll_attempts"`

	// LastPolledAt is the time of the most recent poll attempt; used only
	// for batch ordering.
	LastPolledAt *time.Time `json:"last_polled_at,omitempty"`

	// TranscriptRaw is the remote transcript payload, set exactly once on
	// successful completion.
	TranscriptRaw json.RawMessage `json:"transcript_raw,omitempty"`

	// TranscriptText is the canonical formatted transcript, derived
	// deterministically from TranscriptRaw and set alongside it.
	TranscriptText *string `json:"transcript_text,omitempty"`

	// VideoURL is the bot's reported recording reference, if any.
	VideoURL *string `json:"video_url,omitempty"`

	// LastError is the most recent failure message; cleared on success,
	// retained across failures for diagnostics.
	LastError *string `json:"last_error,omitempty"`

	// CompletedAt is set when the meeting reaches a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EligibleForPolling reports whether the meeting qualifies for another poll:
// a bot is dispatched, the last observed status (if any) is still active or
// unknown, and the attempt limit is not exhausted.
func (m *Meeting) EligibleForPolling(maxAttempts int) bool {
	if m.ExternalBotID == nil {
		return false
	}
	if m.PollAttempts >= maxAttempts {
		return false
	}
	if m.BotStatus == nil {
		return true
	}
	return *m.BotStatus == StatusUnknown || m.BotStatus.IsActive()
}
