// Package calendar extracts meeting links from calendar event data.
package calendar

import (
	"regexp"
	"strings"
)

// Platform identifies the conferencing service behind a meeting URL.
type Platform string

const (
	PlatformZoom        Platform = "zoom"
	PlatformTeams       Platform = "teams"
	PlatformMeet        Platform = "meet"
	PlatformWebex       Platform = "webex"
	PlatformGoToMeeting Platform = "gotomeeting"
	PlatformUnknown     Platform = "unknown"
)

// Event is the slice of a calendar event the extractor looks at.
type Event struct {
	HangoutLink string
	Description string
	Location    string
}

var (
	zoomPattern  = regexp.MustCompile(`https://[a-zA-Z0-9.-]*\.?zoom\.us/[a-zA-Z0-9/?=&.-]+`)
	teamsPattern = regexp.MustCompile(`https://teams\.microsoft\.com/[a-zA-Z0-9/?=&.-]+`)
	webexPattern = regexp.MustCompile(`https://[a-zA-Z0-9.-]*\.?webex\.com/[a-zA-Z0-9/?=&.-]+`)
	meetPattern  = regexp.MustCompile(`https://meet\.google\.com/[a-zA-Z0-9-]+`)
)

// ExtractMeetingURL finds a conferencing link in a calendar event. The
// dedicated hangout link wins; otherwise the description and location are
// scanned for known providers, Zoom first. Returns "" when nothing matches.
func ExtractMeetingURL(event Event) string {
	if event.HangoutLink != "" {
		return event.HangoutLink
	}

	text := event.Description + " " + event.Location
	for _, pattern := range []*regexp.Regexp{zoomPattern, teamsPattern, webexPattern, meetPattern} {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// DetectPlatform determines the conferencing service from a meeting URL.
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "zoom.us"):
		return PlatformZoom
	case strings.Contains(lower, "teams.microsoft.com"):
		return PlatformTeams
	case strings.Contains(lower, "meet.google.com"):
		return PlatformMeet
	case strings.Contains(lower, "webex.com"):
		return PlatformWebex
	case strings.Contains(lower, "gotomeeting.com"):
		return PlatformGoToMeeting
	default:
		return PlatformUnknown
	}
}
