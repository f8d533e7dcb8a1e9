package pipeline

import (
	"log/slog"

	"github.com/phrazzld/newsmaker-api/internal/generation"
)

// Dependencies collects what the standard four-stage pipeline needs.
type Dependencies struct {
	Providers ReasonerResolver
	Decoder   generation.Decoder
	Retriever Retriever

	// Optional.
	Fetcher         Fetcher
	Mentions        MentionSearcher
	Images          ImageResolver
	MinTextLength   int
	ComposeParallel int
}

// NewStandard builds Analyze → Retrieve-Context → Compose → Enrich.
func NewStandard(deps Dependencies, logger *slog.Logger) (*Pipeline, error) {
	analyze, err := NewAnalyzeStage(AnalyzeConfig{
		Providers:     deps.Providers,
		Decoder:       deps.Decoder,
		Fetcher:       deps.Fetcher,
		Mentions:      deps.Mentions,
		MinTextLength: deps.MinTextLength,
	}, logger)
	if err != nil {
		return nil, err
	}

	retrieve, err := NewRetrieveStage(deps.Retriever, logger)
	if err != nil {
		return nil, err
	}

	compose, err := NewComposeStage(deps.Providers, deps.ComposeParallel, logger)
	if err != nil {
		return nil, err
	}

	return New(logger, analyze, retrieve, compose, NewEnrichStage(deps.Images, logger)), nil
}
