package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fl(v float64) *float64 { return &v }

func TestFormatEmptyInput(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "", Format([]Segment{}))
}

func TestFormatSingleSegment(t *testing.T) {
	got := Format([]Segment{
		{Speaker: "Alice", StartTime: fl(65), Text: "hi"},
	})
	assert.Equal(t, "[00:01:05] Alice: hi", got)
}

func TestFormatPreservesInputOrder(t *testing.T) {
	// Array order wins even when start offsets are out of order.
	got := Format([]Segment{
		{Speaker: "A", StartTime: fl(65), Text: "hi"},
		{Speaker: "B", StartTime: fl(5), Text: "yo"},
	})
	assert.Equal(t, "[00:01:05] A: hi\n[00:00:05] B: yo", got)
}

func TestFormatDropsEmptySegments(t *testing.T) {
	assert.Equal(t, "", Format([]Segment{{Speaker: "A", Text: ""}}))

	got := Format([]Segment{
		{Speaker: "A", StartTime: fl(1), Text: "first"},
		{Speaker: "B", Text: "   "},
		{Speaker: "C", StartTime: fl(3), Text: "third"},
	})
	assert.Equal(t, "[00:00:01] A: first\n[00:00:03] C: third", got)
}

func TestFormatTextPrecedesWords(t *testing.T) {
	got := Format([]Segment{
		{
			Speaker:   "A",
			StartTime: fl(0),
			Text:      "the transcript text",
			Words:     []Word{{Text: "ignored"}, {Text: "words"}},
		},
	})
	assert.Equal(t, "[00:00:00] A: the transcript text", got)
}

func TestFormatJoinsWordsWhenTextAbsent(t *testing.T) {
	got := Format([]Segment{
		{
			Speaker:   "A",
			StartTime: fl(3725),
			Words:     []Word{{Text: "hello"}, {Text: "there"}, {Text: "world"}},
		},
	})
	assert.Equal(t, "[01:02:05] A: hello there world", got)
}

func TestFormatDefaultSpeaker(t *testing.T) {
	got := Format([]Segment{{StartTime: fl(5), Text: "anonymous remark"}})
	assert.Equal(t, "[00:00:05] Unknown: anonymous remark", got)
}

func TestFormatMissingOffset(t *testing.T) {
	got := Format([]Segment{{Speaker: "A", Text: "no timestamp"}})
	assert.Equal(t, "[] A: no timestamp", got)
}

func TestFormatOffsetWrapsAtDay(t *testing.T) {
	// Offsets are epoch-relative; a day boundary wraps the hour field.
	got := Format([]Segment{{Speaker: "A", StartTime: fl(86400 + 61), Text: "next day"}})
	assert.Equal(t, "[00:01:01] A: next day", got)
}

func TestFormatIdempotent(t *testing.T) {
	segments := []Segment{
		{Speaker: "A", StartTime: fl(1.9), Text: "fractional seconds truncate"},
		{Speaker: "B", StartTime: fl(59), Words: []Word{{Text: "word"}, {Text: "salad"}}},
		{Speaker: "C"},
	}

	first := Format(segments)
	second := Format(segments)
	assert.Equal(t, first, second, "formatting must be deterministic")
	assert.Equal(t,
		"[00:00:01] A: fractional seconds truncate\n[00:00:59] B: word salad",
		first)
}
