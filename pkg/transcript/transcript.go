// Package transcript defines the typed transcript segment model and the
// canonical text rendering derived from it.
//
// Format is pure and deterministic: the same segment list always yields a
// byte-identical string. That matters because the rendered text is persisted
// exactly once and never recomputed.
package transcript

import (
	"fmt"
	"strings"
)

// Word is one timestamped word within a segment.
type Word struct {
	Text       string   `json:"text"`
	StartTime  *float64 `json:"start_time,omitempty"`
	EndTime    *float64 `json:"end_time,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Segment is one unit of a transcript, typically one speaker turn. All
// fields are optional in the remote payload.
type Segment struct {
	Speaker   string   `json:"speaker,omitempty"`
	Text      string   `json:"text,omitempty"`
	Words     []Word   `json:"words,omitempty"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// DefaultSpeaker is used when a segment carries no speaker label.
const DefaultSpeaker = "Unknown"

// Format renders segments as one line per segment, in input order:
//
//	[<HH:MM:SS>] <speaker>: <text>
//
// Segment text takes precedence over the word list; segments that resolve
// to empty text are dropped. An empty input produces an empty string.
func Format(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}

	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := resolveText(seg)
		if strings.TrimSpace(text) == "" {
			continue
		}

		speaker := seg.Speaker
		if speaker == "" {
			speaker = DefaultSpeaker
		}

		lines = append(lines, fmt.Sprintf("[%s] %s: %s", formatOffset(seg.StartTime), speaker, text))
	}

	return strings.Join(lines, "\n")
}

// resolveText returns the segment's own text when present, otherwise the
// space-joined concatenation of its word list.
func resolveText(seg Segment) string {
	if seg.Text != "" {
		return seg.Text
	}
	if len(seg.Words) == 0 {
		return ""
	}
	words := make([]string, len(seg.Words))
	for i, w := range seg.Words {
		words[i] = w.Text
	}
	return strings.Join(words, " ")
}

// formatOffset renders a start offset in seconds as zero-padded HH:MM:SS,
// treated as epoch-relative (wraps at 24 hours). A missing offset renders
// as the empty string.
func formatOffset(start *float64) string {
	if start == nil {
		return ""
	}
	total := int(*start)
	if total < 0 {
		total = 0
	}
	h := (total / 3600) % 24
	m := (total / 60) % 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
