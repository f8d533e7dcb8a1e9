// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/newsmaker-api/internal/events"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

const defaultTimeout = 10 * time.Second

var (
	// ErrMissingToken is returned by NewSink without a bot token.
	ErrMissingToken = errors.New("telegram bot token is required")

	// ErrAPI is returned when the Bot API answers ok=false.
	ErrAPI = errors.New("telegram api error")
)

// Sink sends every event as an HTML message to the chat id in its destination.
type Sink struct {
	token  string
	apiURL string
	client *http.Client
	logger *slog.Logger
}

// NewSink creates a Sink. An empty apiURL uses DefaultAPIURL; a nil client
// gets a 10 second timeout.
func NewSink(token, apiURL string, client *http.Client, logger *slog.Logger) (*Sink, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		token:  token,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: client,
		logger: logger.With("component", "telegram_sink"),
	}, nil
}

// Name implements notify.Sink.
func (s *Sink) Name() string { return "telegram" }

// Accepts implements notify.Sink.
func (s *Sink) Accepts(*events.Event) bool { return true }

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Deliver implements notify.Sink.
func (s *Sink) Deliver(ctx context.Context, destination, message string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                destination,
		Text:                  message,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encode sendMessage: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The url in a transport error carries the token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode sendMessage response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("%w: %d %s", ErrAPI, out.ErrorCode, out.Description)
	}

	s.logger.DebugContext(ctx, "message sent", "chat_id", destination)
	return nil
}
