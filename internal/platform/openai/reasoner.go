package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/config"
	"github.com/phrazzld/newsmaker-api/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenRouter-hosted providers and their model names.
const (
	ProviderQwen     = "qwen"
	ProviderDeepSeek = "deepseek"
)

// Models maps provider names to OpenRouter model identifiers.
var Models = map[string]string{
	ProviderQwen:     "qwen/qwen-2.5-72b-instruct",
	ProviderDeepSeek: "deepseek/deepseek-chat",
}

// Reasoner implements generation.Reasoner using a chat completion endpoint.
type Reasoner struct {
	client      *goopenai.Client
	model       string
	temperature float32
	retry       generation.RetryPolicy
	logger      *slog.Logger
}

var _ generation.Reasoner = (*Reasoner)(nil)

// New creates a Reasoner for a provider listed in Models.
func New(provider string, cfg config.LLMConfig, logger *slog.Logger) (*Reasoner, error) {
	model, ok := Models[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", generation.ErrUnknownProvider, provider)
	}
	return NewWithModel(model, cfg, logger)
}

// NewWithModel creates a Reasoner for an explicit model identifier.
func NewWithModel(model string, cfg config.LLMConfig, logger *slog.Logger) (*Reasoner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("%w: openrouter API key cannot be empty", generation.ErrInvalidConfig)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := goopenai.DefaultConfig(cfg.OpenRouterAPIKey)
	if cfg.OpenRouterBaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.OpenRouterBaseURL, "/")
	}

	logger = logger.With("component", "openai_reasoner", "model", model)
	return &Reasoner{
		client:      goopenai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
		retry:       generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds, logger),
		logger:      logger,
	}, nil
}

// Complete implements generation.Reasoner.
func (r *Reasoner) Complete(ctx context.Context, prompt generation.Prompt) (string, error) {
	if strings.TrimSpace(prompt.User) == "" {
		return "", fmt.Errorf("%w: empty prompt", generation.ErrInvalidResponse)
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: prompt.User,
	})

	req := goopenai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: r.temperature,
	}
	if prompt.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var reply string
	err := r.retry.Do(ctx, r.logger, func(ctx context.Context) error {
		resp, err := r.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(ctx, err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices returned", generation.ErrInvalidResponse)
		}
		choice := resp.Choices[0]
		if choice.FinishReason == goopenai.FinishReasonContentFilter {
			return fmt.Errorf("%w: content filtered", generation.ErrContentBlocked)
		}
		if strings.TrimSpace(choice.Message.Content) == "" {
			return fmt.Errorf("%w: empty message content", generation.ErrInvalidResponse)
		}
		reply = choice.Message.Content
		return nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "chat completion failed", "error", err)
		return "", err
	}
	return reply, nil
}

// classify maps client errors onto the generation sentinels. Rate limits,
// server errors and transport failures are transient.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == 0, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	default:
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
}
