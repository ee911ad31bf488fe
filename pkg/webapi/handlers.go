// Package webapi exposes the dashboard REST API: polling control and
// status, and the per-meeting note taker toggle.
package webapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/notetaker"
)

const recentActivityLimit = 20

// PollingController is the slice of the scheduler the API needs.
type PollingController interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
}

// StatsStore reads aggregate polling state for the dashboard.
type StatsStore interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	RecentActivity(ctx context.Context, limit int) ([]meeting.Meeting, error)
}

// Notetaker toggles recording bots for meetings.
type Notetaker interface {
	Enable(ctx context.Context, details notetaker.EventDetails) (*meeting.Meeting, error)
	Disable(ctx context.Context, calendarEventID string) (*meeting.Meeting, error)
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	polling   PollingController
	stats     StatsStore
	notetaker Notetaker
	logger    logging.Logger
}

// NewHandlers creates a new Handlers.
func NewHandlers(polling PollingController, stats StatsStore, nt Notetaker, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handlers{polling: polling, stats: stats, notetaker: nt, logger: logger}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandlePollingStatus reports whether polling is running plus per-status
// meeting counts and recent activity. Opening the dashboard also starts
// polling if nothing has yet.
func (h *Handlers) HandlePollingStatus(w http.ResponseWriter, r *http.Request) {
	if !h.polling.Running() {
		h.logger.Info("polling not running, starting on dashboard request")
		h.polling.Start(context.WithoutCancel(r.Context()))
	}

	counts, err := h.stats.StatusCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, err := h.stats.RecentActivity(r.Context(), recentActivityLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := PollingStatusResponse{
		Running:        h.polling.Running(),
		StatusCounts:   counts,
		RecentActivity: make([]MeetingActivity, 0, len(recent)),
	}
	for _, m := range recent {
		resp.RecentActivity = append(resp.RecentActivity, newMeetingActivity(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePollingStart starts the polling loop.
func (h *Handlers) HandlePollingStart(w http.ResponseWriter, r *http.Request) {
	h.polling.Start(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

// HandlePollingStop stops the polling loop.
func (h *Handlers) HandlePollingStop(w http.ResponseWriter, _ *http.Request) {
	h.polling.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

// HandleToggleNotetaker enables or disables the note taker for one calendar
// event.
func (h *Handlers) HandleToggleNotetaker(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CalendarEventID == "" {
		writeError(w, http.StatusBadRequest, "calendar_event_id is required")
		return
	}

	var (
		m   *meeting.Meeting
		err error
	)
	if req.Enabled {
		m, err = h.notetaker.Enable(r.Context(), notetaker.EventDetails{
			CalendarEventID: req.CalendarEventID,
			Title:           req.Title,
			MeetingURL:      req.MeetingURL,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			Attendees:       req.Attendees,
		})
	} else {
		m, err = h.notetaker.Disable(r.Context(), req.CalendarEventID)
	}
	if err != nil {
		switch {
		case errors.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.IsNotFound(err):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("note taker toggle failed",
				logging.F("calendar_event_id", req.CalendarEventID),
				logging.Err(err))
			writeError(w, http.StatusInternalServerError, "failed to toggle note taker")
		}
		return
	}

	resp := ToggleResponse{
		MeetingID: m.ID,
		Enabled:   m.NotetakerEnabled,
		Platform:  m.Platform,
	}
	if m.ExternalBotID != nil {
		resp.BotID = *m.ExternalBotID
	}
	writeJSON(w, http.StatusOK, resp)
}
