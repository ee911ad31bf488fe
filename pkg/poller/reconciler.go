package poller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

// Reconciler polls one meeting's bot and brings the stored record up to date
// with what the bot service reports.
type Reconciler struct {
	store     Store
	client    BotClient
	publisher Publisher
	logger    logging.Logger
}

// NewReconciler builds a Reconciler. A nil publisher discards notifications.
func NewReconciler(store Store, client BotClient, publisher Publisher, logger logging.Logger) *Reconciler {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reconciler{store: store, client: client, publisher: publisher, logger: logger}
}

// Reconcile performs one poll of one meeting. Every attempt advances the
// meeting's poll counter and last polled timestamp, whether the status fetch
// succeeds or not. When the bot reports the call finished, the transcript is
// fetched and the meeting moves to its terminal status: completed when text
// came back, no_transcript when the call produced nothing, or
// processing_failed when the transcript could not be retrieved.
func (r *Reconciler) Reconcile(ctx context.Context, m *meeting.Meeting) (Outcome, error) {
	if m.ExternalBotID == nil || *m.ExternalBotID == "" {
		return OutcomePollError, fmt.Errorf("meeting %s has no bot attached", m.ID)
	}
	botID := *m.ExternalBotID
	logger := r.logger.With(
		logging.F("meeting_id", m.ID),
		logging.F("bot_id", botID),
	)

	bot, err := r.client.GetBot(ctx, botID)
	if err != nil {
		logger.Warn("bot status fetch failed", logging.Err(err))
		if storeErr := r.store.RecordPollError(ctx, m.ID, err.Error()); storeErr != nil {
			return OutcomePollError, fmt.Errorf("recording poll error: %w", storeErr)
		}
		return OutcomePollError, err
	}

	status := bot.LatestStatus()
	if err := r.store.RecordPoll(ctx, m.ID, status); err != nil {
		return OutcomePollError, fmt.Errorf("recording poll: %w", err)
	}

	if !status.TriggersTranscript() {
		logger.Debug("bot status observed", logging.F("status", string(status)))
		return OutcomeProgress, nil
	}

	return r.finishMeeting(ctx, m, bot, status, logger)
}

// finishMeeting handles a bot that reports its call over: fetch the
// transcript and settle the meeting's terminal status.
func (r *Reconciler) finishMeeting(ctx context.Context, m *meeting.Meeting, bot *recall.Bot, observed meeting.BotStatus, logger logging.Logger) (Outcome, error) {
	segments, err := r.client.GetTranscript(ctx, bot.ID)
	if err != nil {
		logger.Error("transcript fetch failed", logging.Err(err))
		reason := fmt.Sprintf("transcript retrieval failed: %v", err)
		if storeErr := r.store.MarkProcessingFailed(ctx, m.ID, reason); storeErr != nil {
			return OutcomePollError, fmt.Errorf("marking processing failed: %w", storeErr)
		}
		r.publisher.MeetingFailed(ctx, m, reason)
		return OutcomeFailed, err
	}

	text := transcript.Format(segments)
	if text == "" {
		logger.Info("call finished without a transcript",
			logging.F("observed_status", string(observed)))
		if err := r.store.MarkNoTranscript(ctx, m.ID); err != nil {
			return OutcomePollError, fmt.Errorf("marking no transcript: %w", err)
		}
		r.publisher.MeetingCompleted(ctx, m, meeting.StatusNoTranscript)
		return OutcomeNoTranscript, nil
	}

	raw, err := json.Marshal(segments)
	if err != nil {
		return OutcomePollError, fmt.Errorf("encoding transcript: %w", err)
	}
	var videoURL *string
	if bot.VideoURL != "" {
		videoURL = &bot.VideoURL
	}
	if err := r.store.SaveTranscript(ctx, m.ID, raw, text, videoURL); err != nil {
		return OutcomePollError, fmt.Errorf("saving transcript: %w", err)
	}
	logger.Info("meeting completed",
		logging.F("segments", len(segments)),
		logging.F("observed_status", string(observed)))
	r.publisher.MeetingCompleted(ctx, m, meeting.StatusCompleted)
	return OutcomeCompleted, nil
}
