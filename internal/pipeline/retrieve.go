package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	queryFallbackRunes = 200
	queryFallback      = "News"
)

// RetrieveStage attaches relevant past cases for the tenant.
type RetrieveStage struct {
	retriever Retriever
	logger    *slog.Logger
}

// NewRetrieveStage creates the Retrieve-Context stage.
func NewRetrieveStage(retriever Retriever, logger *slog.Logger) (*RetrieveStage, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveStage{
		retriever: retriever,
		logger:    logger.With("component", "retrieve_stage"),
	}, nil
}

// Name implements Stage.
func (s *RetrieveStage) Name() string { return StageRetrieve }

// Run implements Stage. Retrieval failures are not fatal.
func (s *RetrieveStage) Run(ctx context.Context, pc Context) Context {
	query := QueryKey(pc)
	snippets, err := s.retriever.QueryTenant(ctx, pc.TenantID, query)
	if err != nil {
		s.logger.WarnContext(ctx, "context retrieval failed, continuing without context",
			"error", err)
		return pc.WithSnippets(nil)
	}
	s.logger.DebugContext(ctx, "retrieved context", "snippets", len(snippets))
	return pc.WithSnippets(snippets)
}

// QueryKey is the retrieval query for a run: the analysis summary, else the
// first 200 runes of the input text, else a fixed placeholder.
func QueryKey(pc Context) string {
	if pc.Analysis != nil {
		if s := strings.TrimSpace(pc.Analysis.Summary); s != "" {
			return s
		}
	}
	text := strings.TrimSpace(pc.Text)
	if text == "" {
		text = strings.TrimSpace(pc.Input.Text)
	}
	if text == "" {
		return queryFallback
	}
	if utf8.RuneCountInString(text) <= queryFallbackRunes {
		return text
	}
	return string([]rune(text)[:queryFallbackRunes])
}
