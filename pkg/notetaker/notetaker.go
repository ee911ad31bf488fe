// Package notetaker manages the recording bot attached to a meeting:
// enabling dispatches a bot scheduled to join at the meeting start, and
// disabling cancels the bot and detaches it from the meeting record.
package notetaker

import (
	"context"
	"fmt"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/calendar"
	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
)

// Store is the meeting persistence the notetaker service needs.
type Store interface {
	Create(ctx context.Context, m *meeting.Meeting) error
	GetByID(ctx context.Context, id string) (*meeting.Meeting, error)
	GetByCalendarEventID(ctx context.Context, eventID string) (*meeting.Meeting, error)
	SetBotScheduled(ctx context.Context, id, botID string) error
	ClearBot(ctx context.Context, id string) error
}

// BotClient is the slice of the bot service API the notetaker needs.
type BotClient interface {
	CreateBot(ctx context.Context, req recall.CreateBotRequest) (*recall.Bot, error)
	DeleteBot(ctx context.Context, botID string) error
}

// EventDetails carries the calendar data needed to register a meeting.
type EventDetails struct {
	CalendarEventID string
	Title           string
	MeetingURL      string
	StartTime       time.Time
	EndTime         *time.Time
	Attendees       []string
}

// Service toggles note taking for meetings.
type Service struct {
	store  Store
	client BotClient
	logger logging.Logger
}

// NewService builds a notetaker Service.
func NewService(store Store, client BotClient, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{store: store, client: client, logger: logger}
}

// Enable registers the calendar event as a meeting if needed and dispatches
// a recording bot scheduled to join at the meeting start. Enabling a meeting
// that already has a bot is a no-op.
func (s *Service) Enable(ctx context.Context, details EventDetails) (*meeting.Meeting, error) {
	if details.MeetingURL == "" {
		return nil, fmt.Errorf("%w: cannot enable note taker without a meeting URL", errors.ErrValidation)
	}

	m, err := s.store.GetByCalendarEventID(ctx, details.CalendarEventID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return nil, fmt.Errorf("looking up meeting: %w", err)
		}
		m = &meeting.Meeting{
			CalendarEventID: details.CalendarEventID,
			Title:           details.Title,
			MeetingURL:      details.MeetingURL,
			Platform:        string(calendar.DetectPlatform(details.MeetingURL)),
			StartTime:       details.StartTime,
			EndTime:         details.EndTime,
			Attendees:       details.Attendees,
		}
		if err := s.store.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("registering meeting: %w", err)
		}
	}

	if m.ExternalBotID != nil && *m.ExternalBotID != "" {
		s.logger.Debug("note taker already enabled",
			logging.F("meeting_id", m.ID),
			logging.F("bot_id", *m.ExternalBotID))
		return m, nil
	}

	req := recall.CreateBotRequest{MeetingURL: details.MeetingURL}
	// Future meetings get a scheduled bot; one for a meeting already under
	// way joins immediately.
	if details.StartTime.After(time.Now()) {
		joinAt := details.StartTime
		req.JoinAt = &joinAt
	}

	bot, err := s.client.CreateBot(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dispatching bot: %w", err)
	}
	if err := s.store.SetBotScheduled(ctx, m.ID, bot.ID); err != nil {
		return nil, fmt.Errorf("attaching bot to meeting: %w", err)
	}

	s.logger.Info("note taker enabled",
		logging.F("meeting_id", m.ID),
		logging.F("bot_id", bot.ID))
	return s.store.GetByID(ctx, m.ID)
}

// Disable cancels the meeting's bot and detaches it. The meeting record is
// detached even when the remote cancellation fails, so a bot the service
// already discarded cannot wedge the toggle.
func (s *Service) Disable(ctx context.Context, calendarEventID string) (*meeting.Meeting, error) {
	m, err := s.store.GetByCalendarEventID(ctx, calendarEventID)
	if err != nil {
		return nil, fmt.Errorf("looking up meeting: %w", err)
	}

	if m.ExternalBotID != nil && *m.ExternalBotID != "" {
		if err := s.client.DeleteBot(ctx, *m.ExternalBotID); err != nil && !errors.IsNotFound(err) {
			s.logger.Warn("bot cancellation failed, detaching anyway",
				logging.F("meeting_id", m.ID),
				logging.F("bot_id", *m.ExternalBotID),
				logging.Err(err))
		}
	}

	if err := s.store.ClearBot(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("detaching bot from meeting: %w", err)
	}
	s.logger.Info("note taker disabled", logging.F("meeting_id", m.ID))
	return s.store.GetByID(ctx, m.ID)
}
