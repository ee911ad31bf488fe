// Package store persists meeting records in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
)

// Schema creates the meetings table. Applied at startup with EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS meetings (
	id                UUID PRIMARY KEY,
	calendar_event_id TEXT NOT NULL UNIQUE,
	title             TEXT NOT NULL DEFAULT '',
	meeting_url       TEXT NOT NULL DEFAULT '',
	platform          TEXT NOT NULL DEFAULT '',
	start_time        TIMESTAMPTZ NOT NULL,
	end_time          TIMESTAMPTZ,
	attendees         JSONB NOT NULL DEFAULT '[]'::jsonb,
	notetaker_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	external_bot_id   TEXT,
	bot_status        TEXT,
	poll_attempts     INTEGER NOT NULL DEFAULT 0,
	last_polled_at    TIMESTAMPTZ,
	transcript_raw    JSONB,
	transcript_text   TEXT,
	video_url         TEXT,
	last_error        TEXT,
	completed_at      TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_meetings_polling
	ON meetings (last_polled_at ASC NULLS FIRST)
	WHERE external_bot_id IS NOT NULL;
`

const meetingColumns = `
	id, calendar_event_id, title, meeting_url, platform,
	start_time, end_time, attendees, notetaker_enabled,
	external_bot_id, bot_status, poll_attempts, last_polled_at,
	transcript_raw, transcript_text, video_url, last_error,
	completed_at, created_at, updated_at`

// PostgresStore implements meeting persistence using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies the meetings schema.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying meetings schema: %w", err)
	}
	return nil
}

// Create inserts a new meeting record. A missing ID is assigned.
func (s *PostgresStore) Create(ctx context.Context, m *meeting.Meeting) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CalendarEventID == "" {
		return fmt.Errorf("%w: calendar event ID is required", errors.ErrValidation)
	}

	attendees, err := json.Marshal(m.Attendees)
	if err != nil {
		return fmt.Errorf("encoding attendees: %w", err)
	}

	query := `
		INSERT INTO meetings (
			id, calendar_event_id, title, meeting_url, platform,
			start_time, end_time, attendees, notetaker_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRow(ctx, query,
		m.ID,
		m.CalendarEventID,
		m.Title,
		m.MeetingURL,
		m.Platform,
		m.StartTime,
		m.EndTime,
		attendees,
		m.NotetakerEnabled,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating meeting: %w", err)
	}
	return nil
}

// GetByID retrieves a meeting by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*meeting.Meeting, error) {
	query := `SELECT` + meetingColumns + ` FROM meetings WHERE id = $1`
	m, err := scanMeeting(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("getting meeting %s: %w", id, err)
	}
	return m, nil
}

// GetByCalendarEventID retrieves a meeting by its calendar event ID.
func (s *PostgresStore) GetByCalendarEventID(ctx context.Context, eventID string) (*meeting.Meeting, error) {
	query := `SELECT` + meetingColumns + ` FROM meetings WHERE calendar_event_id = $1`
	m, err := scanMeeting(s.db.QueryRow(ctx, query, eventID))
	if err != nil {
		return nil, fmt.Errorf("getting meeting for event %s: %w", eventID, err)
	}
	return m, nil
}

// FindEligible returns meetings that should be polled, oldest first. Never
// polled meetings sort before everything else. Only meetings with a
// dispatched bot whose status is still unresolved qualify, and meetings
// that have exhausted their poll attempts are excluded.
func (s *PostgresStore) FindEligible(ctx context.Context, maxAttempts, limit int) ([]meeting.Meeting, error) {
	query := `SELECT` + meetingColumns + `
		FROM meetings
		WHERE external_bot_id IS NOT NULL
		  AND (bot_status IS NULL OR bot_status = ANY($1))
		  AND poll_attempts < $2
		ORDER BY last_polled_at ASC NULLS FIRST
		LIMIT $3
	`
	pollable := make([]string, 0, len(meeting.ActiveStatuses())+1)
	pollable = append(pollable, string(meeting.StatusUnknown))
	for _, st := range meeting.ActiveStatuses() {
		pollable = append(pollable, string(st))
	}

	rows, err := s.db.Query(ctx, query, pollable, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("finding eligible meetings: %w", err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}

// RecordPoll persists an observed bot status for one poll attempt. The
// attempt counter and last polled timestamp always advance.
func (s *PostgresStore) RecordPoll(ctx context.Context, id string, status meeting.BotStatus) error {
	query := `
		UPDATE meetings
		SET bot_status = $2,
			poll_attempts = poll_attempts + 1,
			last_polled_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "recording poll", query, id, string(status))
}

// RecordPollError advances the attempt counter and stores the error without
// touching the stored bot status.
func (s *PostgresStore) RecordPollError(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE meetings
		SET poll_attempts = poll_attempts + 1,
			last_polled_at = NOW(),
			last_error = $2,
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "recording poll error", query, id, errMsg)
}

// SaveTranscript marks a meeting completed with its transcript payload and
// clears any previous error.
func (s *PostgresStore) SaveTranscript(ctx context.Context, id string, raw json.RawMessage, text string, videoURL *string) error {
	query := `
		UPDATE meetings
		SET bot_status = $2,
			transcript_raw = $3,
			transcript_text = $4,
			video_url = COALESCE($5, video_url),
			last_error = NULL,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "saving transcript", query, id, string(meeting.StatusCompleted), raw, text, videoURL)
}

// MarkNoTranscript marks a finished meeting that produced no transcript.
func (s *PostgresStore) MarkNoTranscript(ctx context.Context, id string) error {
	query := `
		UPDATE meetings
		SET bot_status = $2,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "marking no transcript", query, id, string(meeting.StatusNoTranscript))
}

// MarkProcessingFailed records a transcript retrieval failure. The meeting
// stays uncompleted so the failure is visible for manual follow-up.
func (s *PostgresStore) MarkProcessingFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE meetings
		SET bot_status = $2,
			last_error = $3,
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "marking processing failed", query, id, string(meeting.StatusProcessingFailed), errMsg)
}

// SetBotScheduled attaches a dispatched bot to a meeting and resets its
// polling state.
func (s *PostgresStore) SetBotScheduled(ctx context.Context, id, botID string) error {
	query := `
		UPDATE meetings
		SET notetaker_enabled = TRUE,
			external_bot_id = $2,
			bot_status = NULL,
			poll_attempts = 0,
			last_polled_at = NULL,
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "scheduling bot", query, id, botID)
}

// ClearBot detaches a cancelled bot from a meeting.
func (s *PostgresStore) ClearBot(ctx context.Context, id string) error {
	query := `
		UPDATE meetings
		SET notetaker_enabled = FALSE,
			external_bot_id = NULL,
			bot_status = NULL,
			poll_attempts = 0,
			last_polled_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return s.exec(ctx, "clearing bot", query, id)
}

// StatusCounts returns the number of meetings per bot status. Meetings with
// no status yet are reported under "pending".
func (s *PostgresStore) StatusCounts(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT COALESCE(bot_status, 'pending'), COUNT(*)
		FROM meetings
		WHERE external_bot_id IS NOT NULL
		GROUP BY 1
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting meeting statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// RecentActivity returns the most recently polled meetings, newest first.
func (s *PostgresStore) RecentActivity(ctx context.Context, limit int) ([]meeting.Meeting, error) {
	query := `SELECT` + meetingColumns + `
		FROM meetings
		WHERE last_polled_at IS NOT NULL
		ORDER BY last_polled_at DESC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent activity: %w", err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}

func (s *PostgresStore) exec(ctx context.Context, action, query string, args ...any) error {
	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", action, errors.ErrNotFound)
	}
	return nil
}

func collectMeetings(rows pgx.Rows) ([]meeting.Meeting, error) {
	var meetings []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meetings: %w", err)
	}
	return meetings, nil
}

func scanMeeting(row pgx.Row) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var endTime, lastPolledAt, completedAt *time.Time
	var externalBotID, botStatus, transcriptText, videoURL, lastError *string
	var attendeesJSON, transcriptRaw []byte

	err := row.Scan(
		&m.ID,
		&m.CalendarEventID,
		&m.Title,
		&m.MeetingURL,
		&m.Platform,
		&m.StartTime,
		&endTime,
		&attendeesJSON,
		&m.NotetakerEnabled,
		&externalBotID,
		&botStatus,
		&m.PollAttempts,
		&lastPolledAt,
		&transcriptRaw,
		&transcriptText,
		&videoURL,
		&lastError,
		&completedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("scanning meeting: %w", err)
	}

	m.EndTime = endTime
	m.LastPolledAt = lastPolledAt
	m.CompletedAt = completedAt
	m.ExternalBotID = externalBotID
	m.TranscriptText = transcriptText
	m.VideoURL = videoURL
	m.LastError = lastError
	if botStatus != nil {
		st := meeting.BotStatus(*botStatus)
		m.BotStatus = &st
	}
	if len(transcriptRaw) > 0 {
		m.TranscriptRaw = json.RawMessage(transcriptRaw)
	}
	if len(attendeesJSON) > 0 {
		if err := json.Unmarshal(attendeesJSON, &m.Attendees); err != nil {
			return nil, fmt.Errorf("parsing attendees: %w", err)
		}
	}

	return &m, nil
}
