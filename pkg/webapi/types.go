package webapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// PollingStatusResponse is the payload for GET /api/polling/status.
type PollingStatusResponse struct {
	Running        bool              `json:"running"`
	StatusCounts   map[string]int    `json:"status_counts"`
	RecentActivity []MeetingActivity `json:"recent_activity"`
}

// MeetingActivity is one row of recent polling activity.
type MeetingActivity struct {
	MeetingID    string     `json:"meeting_id"`
	Title        string     `json:"title,omitempty"`
	BotID        string     `json:"bot_id,omitempty"`
	BotStatus    string     `json:"bot_status,omitempty"`
	PollAttempts int        `json:"poll_attempts"`
	LastPolledAt *time.Time `json:"last_polled_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func newMeetingActivity(m meeting.Meeting) MeetingActivity {
	a := MeetingActivity{
		MeetingID:    m.ID,
		Title:        m.Title,
		PollAttempts: m.PollAttempts,
		LastPolledAt: m.LastPolledAt,
		CompletedAt:  m.CompletedAt,
	}
	if m.ExternalBotID != nil {
		a.BotID = *m.ExternalBotID
	}
	if m.BotStatus != nil {
		a.BotStatus = string(*m.BotStatus)
	}
	if m.LastError != nil {
		a.LastError = *m.LastError
	}
	return a
}

// ToggleRequest is the payload for POST /api/notetaker/toggle.
type ToggleRequest struct {
	CalendarEventID string     `json:"calendar_event_id"`
	Enabled         bool       `json:"enabled"`
	Title           string     `json:"title,omitempty"`
	MeetingURL      string     `json:"meeting_url,omitempty"`
	StartTime       time.Time  `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Attendees       []string   `json:"attendees,omitempty"`
}

// ToggleResponse is the payload for POST /api/notetaker/toggle.
type ToggleResponse struct {
	MeetingID string `json:"meeting_id"`
	Enabled   bool   `json:"enabled"`
	BotID     string `json:"bot_id,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// ErrorResponse is the payload for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
