package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/config"
	"github.com/phrazzld/newsmaker-api/internal/generation"
	"google.golang.org/genai"
)

// ProviderName is the registry name of this provider.
const ProviderName = "gemini"

// contentGenerator is the subset of *genai.Models used by the Reasoner.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Reasoner implements generation.Reasoner using the Gemini API.
type Reasoner struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models performs the GenerateContent calls
	models contentGenerator

	// model is the name of the Gemini model to use
	model string

	temperature float32
	retry       generation.RetryPolicy
}

var _ generation.Reasoner = (*Reasoner)(nil)

// New creates a Reasoner with a real genai client.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Reasoner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newReasoner(client.Models, cfg, logger)
}

func newReasoner(models contentGenerator, cfg config.LLMConfig, logger *slog.Logger) (*Reasoner, error) {
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	logger = logger.With("component", "gemini_reasoner", "model", cfg.GeminiModel)
	return &Reasoner{
		logger:      logger,
		models:      models,
		model:       cfg.GeminiModel,
		temperature: cfg.Temperature,
		retry:       generation.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelaySeconds, logger),
	}, nil
}

// Complete implements generation.Reasoner.
func (r *Reasoner) Complete(ctx context.Context, prompt generation.Prompt) (string, error) {
	if strings.TrimSpace(prompt.User) == "" {
		return "", fmt.Errorf("%w: empty prompt", generation.ErrInvalidResponse)
	}

	temperature := r.temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if prompt.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		}
	}
	if prompt.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	var reply string
	err := r.retry.Do(ctx, r.logger, func(ctx context.Context) error {
		r.logger.DebugContext(ctx, "making Gemini API call", "prompt_length", len(prompt.User))

		resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(prompt.User), genConfig)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
			}
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}

		text, err := extractText(resp)
		if err != nil {
			return err
		}
		reply = text
		return nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", err
	}
	return reply, nil
}

// extractText validates a response and concatenates the text parts of the
// first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}
