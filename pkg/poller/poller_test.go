package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

// fakeStore is an in-memory Store with the same update semantics as the
// PostgreSQL implementation.
type fakeStore struct {
	mu       sync.Mutex
	meetings map[string]*meeting.Meeting
	now      time.Time

	failFindEligible   error
	panicFindEligible  bool
	failSaveTranscript error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meetings: make(map[string]*meeting.Meeting),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) add(id, botID string, status *meeting.BotStatus) *meeting.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &meeting.Meeting{
		ID:              id,
		CalendarEventID: "evt-" + id,
		StartTime:       s.now.Add(-time.Hour),
		BotStatus:       status,
	}
	if botID != "" {
		m.ExternalBotID = &botID
	}
	s.meetings[id] = m
	return m
}

func (s *fakeStore) get(id string) meeting.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.meetings[id]
}

func (s *fakeStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *fakeStore) FindEligible(_ context.Context, maxAttempts, limit int) ([]meeting.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFindEligible != nil {
		return nil, s.failFindEligible
	}
	if s.panicFindEligible {
		s.panicFindEligible = false
		panic("selection storage blew up")
	}

	var out []meeting.Meeting
	for _, m := range s.meetings {
		if m.EligibleForPolling(maxAttempts) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastPolledAt, out[j].LastPolledAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) RecordPoll(_ context.Context, id string, status meeting.BotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetings[id]
	m.BotStatus = &status
	m.PollAttempts++
	at := s.tick()
	m.LastPolledAt = &at
	return nil
}

func (s *fakeStore) RecordPollError(_ context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetings[id]
	m.PollAttempts++
	at := s.tick()
	m.LastPolledAt = &at
	m.LastError = &errMsg
	return nil
}

func (s *fakeStore) SaveTranscript(_ context.Context, id string, raw json.RawMessage, text string, videoURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveTranscript != nil {
		return s.failSaveTranscript
	}
	m := s.meetings[id]
	st := meeting.StatusCompleted
	m.BotStatus = &st
	m.TranscriptRaw = raw
	m.TranscriptText = &text
	if videoURL != nil {
		m.VideoURL = videoURL
	}
	m.LastError = nil
	at := s.tick()
	m.CompletedAt = &at
	return nil
}

func (s *fakeStore) MarkNoTranscript(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetings[id]
	st := meeting.StatusNoTranscript
	m.BotStatus = &st
	at := s.tick()
	m.CompletedAt = &at
	return nil
}

func (s *fakeStore) MarkProcessingFailed(_ context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetings[id]
	st := meeting.StatusProcessingFailed
	m.BotStatus = &st
	m.LastError = &errMsg
	return nil
}

// fakeBotClient serves scripted bot states keyed by bot ID.
type fakeBotClient struct {
	mu          sync.Mutex
	bots        map[string]*recall.Bot
	transcripts map[string][]transcript.Segment

	botErr        map[string]error
	transcriptErr map[string]error
}

func newFakeBotClient() *fakeBotClient {
	return &fakeBotClient{
		bots:          make(map[string]*recall.Bot),
		transcripts:   make(map[string][]transcript.Segment),
		botErr:        make(map[string]error),
		transcriptErr: make(map[string]error),
	}
}

func (c *fakeBotClient) setStatus(botID string, codes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bot := &recall.Bot{ID: botID}
	for _, code := range codes {
		bot.StatusChanges = append(bot.StatusChanges, recall.StatusChange{Code: code})
	}
	c.bots[botID] = bot
}

func (c *fakeBotClient) setVideoURL(botID, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bots[botID].VideoURL = url
}

func (c *fakeBotClient) setTranscript(botID string, segments []transcript.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcripts[botID] = segments
}

func (c *fakeBotClient) GetBot(_ context.Context, botID string) (*recall.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.botErr[botID]; err != nil {
		return nil, err
	}
	bot, ok := c.bots[botID]
	if !ok {
		return nil, fmt.Errorf("unscripted bot %s", botID)
	}
	return bot, nil
}

func (c *fakeBotClient) GetTranscript(_ context.Context, botID string) ([]transcript.Segment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transcriptErr[botID]; err != nil {
		return nil, err
	}
	return c.transcripts[botID], nil
}

// recordingPublisher captures lifecycle notifications.
type recordingPublisher struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	cycles    []CycleResult
}

func (p *recordingPublisher) MeetingCompleted(_ context.Context, m *meeting.Meeting, _ meeting.BotStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, m.ID)
}

func (p *recordingPublisher) MeetingFailed(_ context.Context, m *meeting.Meeting, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, m.ID)
}

func (p *recordingPublisher) CycleCompleted(_ context.Context, result CycleResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles = append(p.cycles, result)
}

func (p *recordingPublisher) cycleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cycles)
}

func ptrTo[T any](v T) *T { return &v }
