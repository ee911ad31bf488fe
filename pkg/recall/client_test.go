package recall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Options{APIKey: "k"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = NewClient(Options{BaseURL: "https://example.com"})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCreateBotSendsAuthAndDefaults(t *testing.T) {
	var gotAuth, gotName string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bot", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req CreateBotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotName = req.BotName

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "bot-1", "meeting_url": "https://meet.google.com/abc"}`))
	})

	bot, err := client.CreateBot(context.Background(), CreateBotRequest{
		MeetingURL: "https://meet.google.com/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "bot-1", bot.ID)
	assert.Equal(t, "Token test-key", gotAuth)
	assert.Equal(t, DefaultBotName, gotName)
}

func TestCreateBotRequiresMeetingURL(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server")
	})
	_, err := client.CreateBot(context.Background(), CreateBotRequest{})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestGetLatestStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want meeting.BotStatus
	}{
		{
			name: "last change wins",
			body: `{"id": "bot-1", "status_changes": [
				{"code": "joining_call"},
				{"code": "in_call_recording"},
				{"code": "call_ended"}
			]}`,
			want: meeting.StatusCallEnded,
		},
		{
			name: "empty change log",
			body: `{"id": "bot-1", "status_changes": []}`,
			want: meeting.StatusUnknown,
		},
		{
			name: "unrecognized code passes through",
			body: `{"id": "bot-1", "status_changes": [{"code": "rebooting"}]}`,
			want: meeting.BotStatus("rebooting"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/bot/bot-1", r.URL.Path)
				w.Write([]byte(tt.body))
			})
			status, err := client.GetLatestStatus(context.Background(), "bot-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestGetTranscript(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot/bot-1/transcript", r.URL.Path)
		w.Write([]byte(`[
			{"speaker": "Alice", "words": [{"text": "hello", "start_time": 1.0}]},
			{"speaker": "Bob", "text": "hi there"}
		]`))
	})

	segments, err := client.GetTranscript(context.Background(), "bot-1")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Alice", segments[0].Speaker)
	assert.Equal(t, "hi there", segments[1].Text)
}

func TestGetTranscriptNotReadyIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "transcript not found"}`))
	})

	segments, err := client.GetTranscript(context.Background(), "bot-1")
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"server error is transient", http.StatusInternalServerError, true},
		{"bad gateway is transient", http.StatusBadGateway, true},
		{"rate limit is transient", http.StatusTooManyRequests, true},
		{"unprocessable is terminal", http.StatusUnprocessableEntity, false},
		{"unauthorized is terminal", http.StatusUnauthorized, false},
		{"gone is terminal", http.StatusGone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail": "nope"}`))
			})
			_, err := client.GetBot(context.Background(), "bot-1")
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, errors.IsTransient(err))
			assert.Equal(t, !tt.wantTransient, errors.IsTerminal(err))
		})
	}
}

func TestGetBotNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "no such bot"}`))
	})
	_, err := client.GetBot(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.True(t, errors.IsTerminal(err))
}

func TestDeleteBot(t *testing.T) {
	var deleted string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteBot(context.Background(), "bot-9"))
	assert.Equal(t, "/bot/bot-9", deleted)
}
