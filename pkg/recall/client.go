// Package recall provides an HTTP client for the meeting bot service. It
// dispatches recording bots into meetings, reads their status change logs,
// and downloads finished transcripts.
package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/otherjamesbrown/postmeet/pkg/errors"
	"github.com/otherjamesbrown/postmeet/pkg/logging"
	"github.com/otherjamesbrown/postmeet/pkg/meeting"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

const (
	// DefaultTimeout bounds each request to the bot service.
	DefaultTimeout = 30 * time.Second

	// DefaultBotName is used when no bot name is configured.
	DefaultBotName = "Postmeet Notetaker"

	userAgent = "postmeet-client/1.0"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://us-east-1.recall.ai/api/v1.
	BaseURL string

	// APIKey authenticates requests. Sent as "Token <key>".
	APIKey string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// BotName is the display name used for created bots.
	BotName string

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client

	Logger logging.Logger
}

// Client talks to the bot service over HTTPS with JSON bodies.
type Client struct {
	baseURL string
	apiKey  string
	botName string
	http    *http.Client
	logger  logging.Logger
}

// NewClient builds a Client from opts. BaseURL and APIKey are required.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: bot service base URL is required", errors.ErrValidation)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: bot service API key is required", errors.ErrValidation)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	botName := opts.BotName
	if botName == "" {
		botName = DefaultBotName
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		botName: botName,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// BotName returns the display name used for created bots.
func (c *Client) BotName() string {
	return c.botName
}

// CreateBot dispatches a new bot to the given meeting URL. When joinAt is
// non-nil the bot waits until that time before joining.
func (c *Client) CreateBot(ctx context.Context, req CreateBotRequest) (*Bot, error) {
	if req.MeetingURL == "" {
		return nil, fmt.Errorf("%w: meeting URL is required", errors.ErrValidation)
	}
	if req.BotName == "" {
		req.BotName = c.botName
	}

	var bot Bot
	if err := c.do(ctx, http.MethodPost, "/bot", req, &bot); err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	c.logger.Info("bot created",
		logging.F("bot_id", bot.ID),
		logging.F("meeting_url", req.MeetingURL))
	return &bot, nil
}

// GetBot fetches the bot resource, including its status change log.
func (c *Client) GetBot(ctx context.Context, botID string) (*Bot, error) {
	if botID == "" {
		return nil, fmt.Errorf("%w: bot ID is required", errors.ErrValidation)
	}
	var bot Bot
	if err := c.do(ctx, http.MethodGet, "/bot/"+botID, nil, &bot); err != nil {
		return nil, fmt.Errorf("get bot %s: %w", botID, err)
	}
	return &bot, nil
}

// DeleteBot removes a scheduled bot so it never joins the meeting.
func (c *Client) DeleteBot(ctx context.Context, botID string) error {
	if botID == "" {
		return fmt.Errorf("%w: bot ID is required", errors.ErrValidation)
	}
	if err := c.do(ctx, http.MethodDelete, "/bot/"+botID, nil, nil); err != nil {
		return fmt.Errorf("delete bot %s: %w", botID, err)
	}
	c.logger.Info("bot deleted", logging.F("bot_id", botID))
	return nil
}

// GetLatestStatus fetches the bot and returns the most recent status code
// from its change log, normalized into the known vocabulary. A bot with an
// empty change log reports StatusUnknown.
func (c *Client) GetLatestStatus(ctx context.Context, botID string) (meeting.BotStatus, error) {
	bot, err := c.GetBot(ctx, botID)
	if err != nil {
		return "", err
	}
	return bot.LatestStatus(), nil
}

// GetTranscript downloads the transcript for a bot. A bot with no transcript
// yet yields an empty slice, not an error.
func (c *Client) GetTranscript(ctx context.Context, botID string) ([]transcript.Segment, error) {
	if botID == "" {
		return nil, fmt.Errorf("%w: bot ID is required", errors.ErrValidation)
	}
	var segments []transcript.Segment
	err := c.do(ctx, http.MethodGet, "/bot/"+botID+"/transcript", nil, &segments)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transcript for bot %s: %w", botID, err)
	}
	return segments, nil
}

// do executes one request against the bot service. A non-nil out is decoded
// from the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Terminal(fmt.Errorf("encode request: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Terminal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classifyError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Transient(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyError maps an HTTP error response to the transient/terminal
// taxonomy. 4xx responses will not heal on retry; everything else might.
func (c *Client) classifyError(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return errors.Terminal(fmt.Errorf("%w: %s", errors.ErrNotFound, detail))
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Transient(fmt.Errorf("rate limited (status %d): %s", resp.StatusCode, detail))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Terminal(fmt.Errorf("request rejected (status %d): %s", resp.StatusCode, detail))
	default:
		return errors.Transient(fmt.Errorf("service error (status %d): %s", resp.StatusCode, detail))
	}
}

func readErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var parsed apiErrorBody
	if json.Unmarshal(data, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(data)
}
