package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMeetingURL(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "hangout link wins",
			event: Event{HangoutLink: "https://meet.google.com/abc-defg-hij", Description: "join https://zoom.us/j/123"},
			want:  "https://meet.google.com/abc-defg-hij",
		},
		{
			name:  "zoom in description",
			event: Event{Description: "Join us: https://us02web.zoom.us/j/1234567890?pwd=abc123"},
			want:  "https://us02web.zoom.us/j/1234567890?pwd=abc123",
		},
		{
			name:  "teams in location",
			event: Event{Location: "https://teams.microsoft.com/l/meetup-join/19%3ameeting"},
			want:  "https://teams.microsoft.com/l/meetup-join/19",
		},
		{
			name:  "webex in description",
			event: Event{Description: "https://company.webex.com/meet/alice"},
			want:  "https://company.webex.com/meet/alice",
		},
		{
			name:  "meet link in description",
			event: Event{Description: "video call at https://meet.google.com/abc-defg-hij ok?"},
			want:  "https://meet.google.com/abc-defg-hij",
		},
		{
			name:  "zoom beats meet",
			event: Event{Description: "https://meet.google.com/abc and https://zoom.us/j/987"},
			want:  "https://zoom.us/j/987",
		},
		{
			name:  "no link",
			event: Event{Description: "lunch in the cafeteria", Location: "HQ"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMeetingURL(tt.event))
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://us02web.zoom.us/j/123", PlatformZoom},
		{"https://teams.microsoft.com/l/meetup-join/x", PlatformTeams},
		{"https://meet.google.com/abc-defg-hij", PlatformMeet},
		{"https://company.webex.com/meet/alice", PlatformWebex},
		{"https://www.gotomeeting.com/join/123", PlatformGoToMeeting},
		{"https://example.com/call", PlatformUnknown},
		{"HTTPS://ZOOM.US/J/1", PlatformZoom},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}
