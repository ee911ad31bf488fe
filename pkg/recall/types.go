package recall

import (
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
)

// StatusChange is one entry in a bot's status change log.
type StatusChange struct {
	Code        string    `json:"code"`
	SubCode     string    `json:"sub_code,omitempty"`
	Message     string    `json:"message,omitempty"`
	RecordingID string    `json:"recording_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bot is the remote bot resource.
type Bot struct {
	ID            string         `json:"id"`
	MeetingURL    string         `json:"meeting_url"`
	BotName       string         `json:"bot_name,omitempty"`
	JoinAt        *time.Time     `json:"join_at,omitempty"`
	StatusChanges []StatusChange `json:"status_changes,omitempty"`
	VideoURL      string         `json:"video_url,omitempty"`
	RecordingMode string         `json:"recording_mode,omitempty"`
}

// LatestStatus returns the most recent code from the bot's status change
// log, normalized into the known vocabulary. An empty log reports
// StatusUnknown.
func (b *Bot) LatestStatus() meeting.BotStatus {
	if len(b.StatusChanges) == 0 {
		return meeting.StatusUnknown
	}
	return meeting.NormalizeStatus(b.StatusChanges[len(b.StatusChanges)-1].Code)
}

// TranscriptionOptions selects the transcription provider for a bot.
type TranscriptionOptions struct {
	Provider string `json:"provider"`
}

// CreateBotRequest is the payload for dispatching a new bot.
type CreateBotRequest struct {
	MeetingURL           string                `json:"meeting_url"`
	JoinAt               *time.Time            `json:"join_at,omitempty"`
	BotName              string                `json:"bot_name,omitempty"`
	RecordingMode        string                `json:"recording_mode,omitempty"`
	TranscriptionOptions *TranscriptionOptions `json:"transcription_options,omitempty"`
}

// apiErrorBody is the error shape the remote service returns.
type apiErrorBody struct {
	Detail string `json:"detail"`
}
