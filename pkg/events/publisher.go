// Package events publishes meeting lifecycle events to Redis.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/poller"
)

// Redis channels for meeting lifecycle events
const (
	ChannelMeetingCompleted = "events.meeting.completed"
	ChannelMeetingFailed    = "events.meeting.failed"
	ChannelPollingCycle     = "events.polling.cycle"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "postmeet",
		Version:   "1.0",
	}
}

// MeetingCompletedEvent is published when a meeting reaches a completed
// state, with or without a transcript.
type MeetingCompletedEvent struct {
	BaseEvent

	MeetingID       string `json:"meeting_id"`
	CalendarEventID string `json:"calendar_event_id"`
	Title           string `json:"title,omitempty"`
	BotID           string `json:"bot_id,omitempty"`
	Status          string `json:"status"`
	HasTranscript   bool   `json:"has_transcript"`
}

// MeetingFailedEvent is published when transcript processing fails.
type MeetingFailedEvent struct {
	BaseEvent

	MeetingID       string `json:"meeting_id"`
	CalendarEventID string `json:"calendar_event_id"`
	BotID           string `json:"bot_id,omitempty"`
	Reason          string `json:"reason"`
}

// PollingCycleEvent is published after each polling cycle that did work.
type PollingCycleEvent struct {
	BaseEvent

	Selected        int     `json:"selected"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Errors          int     `json:"errors"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Publisher publishes lifecycle events to Redis. It satisfies the polling
// loop's Publisher interface; publish failures are logged and swallowed so
// event delivery never affects polling.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromAddr creates a publisher with a new Redis connection and
// verifies it.
func NewPublisherFromAddr(addr, password string, db int, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// MeetingCompleted publishes a completion event for a meeting.
func (p *Publisher) MeetingCompleted(ctx context.Context, m *meeting.Meeting, status meeting.BotStatus) {
	event := MeetingCompletedEvent{
		BaseEvent:       NewBaseEvent("meeting.completed"),
		MeetingID:       m.ID,
		CalendarEventID: m.CalendarEventID,
		Title:           m.Title,
		Status:          string(status),
		HasTranscript:   status == meeting.StatusCompleted,
	}
	if m.ExternalBotID != nil {
		event.BotID = *m.ExternalBotID
	}
	p.publish(ctx, ChannelMeetingCompleted, event)
}

// MeetingFailed publishes a processing failure event for a meeting.
func (p *Publisher) MeetingFailed(ctx context.Context, m *meeting.Meeting, reason string) {
	event := MeetingFailedEvent{
		BaseEvent:       NewBaseEvent("meeting.failed"),
		MeetingID:       m.ID,
		CalendarEventID: m.CalendarEventID,
		Reason:          reason,
	}
	if m.ExternalBotID != nil {
		event.BotID = *m.ExternalBotID
	}
	p.publish(ctx, ChannelMeetingFailed, event)
}

// CycleCompleted publishes a summary of one polling cycle. Idle cycles are
// not published.
func (p *Publisher) CycleCompleted(ctx context.Context, result poller.CycleResult) {
	if result.Selected == 0 {
		return
	}
	event := PollingCycleEvent{
		BaseEvent:       NewBaseEvent("polling.cycle"),
		Selected:        result.Selected,
		Completed:       result.Completed,
		Failed:          result.Failed,
		Errors:          result.Errors,
		DurationSeconds: result.Duration.Seconds(),
	}
	p.publish(ctx, ChannelPollingCycle, event)
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event",
			logging.Err(err),
			logging.F("channel", channel))
		return
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
