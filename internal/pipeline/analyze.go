package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/generation"
)

// DefaultMinTextLength is the text length below which a URL is fetched.
const DefaultMinTextLength = 100

var errNoMentions = errors.New("no recent news found for this brand")

// AnalyzeConfig configures the Analyze stage.
type AnalyzeConfig struct {
	Providers ReasonerResolver
	Decoder   generation.Decoder

	// Fetcher and Mentions are optional.
	Fetcher  Fetcher
	Mentions MentionSearcher

	// MinTextLength defaults to DefaultMinTextLength.
	MinTextLength int
}

// AnalyzeStage resolves the news text and asks a Reasoner for a structured analysis.
type AnalyzeStage struct {
	providers     ReasonerResolver
	decoder       generation.Decoder
	fetcher       Fetcher
	mentions      MentionSearcher
	minTextLength int
	logger        *slog.Logger
}

// NewAnalyzeStage creates the Analyze stage.
func NewAnalyzeStage(cfg AnalyzeConfig, logger *slog.Logger) (*AnalyzeStage, error) {
	if cfg.Providers == nil {
		return nil, fmt.Errorf("%w: providers", ErrNilDependency)
	}
	if cfg.Decoder == nil {
		cfg.Decoder = generation.JSONDecoder{}
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultMinTextLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStage{
		providers:     cfg.Providers,
		decoder:       cfg.Decoder,
		fetcher:       cfg.Fetcher,
		mentions:      cfg.Mentions,
		minTextLength: cfg.MinTextLength,
		logger:        logger.With("component", "analyze_stage"),
	}, nil
}

// Name implements Stage.
func (s *AnalyzeStage) Name() string { return StageAnalyze }

// Run implements Stage.
func (s *AnalyzeStage) Run(ctx context.Context, pc Context) Context {
	text, err := s.sourceText(ctx, pc.Input)
	if err != nil {
		return pc.WithError(err)
	}

	reasoner, err := s.providers.Resolve(pc.Input.ModelProvider)
	if err != nil {
		return pc.WithError(NewStageError(StageAnalyze, err))
	}

	raw, err := reasoner.Complete(ctx, generation.AnalysisPrompt(pc.Input, text))
	if err != nil {
		return pc.WithError(NewStageError(StageAnalyze, err))
	}

	analysis, err := s.decoder.Decode(raw)
	if err != nil {
		return pc.WithError(NewStageError(StageAnalyze, err))
	}

	return pc.WithAnalysis(text, analysis)
}

// sourceText returns the text to analyze: the first brand mention when
// monitoring, otherwise the submitted text, replaced by the fetched article
// when the text is too short and a URL is present.
func (s *AnalyzeStage) sourceText(ctx context.Context, req domain.Request) (string, error) {
	if req.IsMonitoring() {
		return s.monitor(ctx, req)
	}

	text := strings.TrimSpace(req.Text)
	url := strings.TrimSpace(req.URL)
	if url != "" && s.fetcher != nil && utf8.RuneCountInString(text) < s.minTextLength {
		fetched, err := s.fetcher.Fetch(ctx, url)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "fetch failed, using submitted text",
				"url", url,
				"error", err)
		case strings.TrimSpace(fetched) != "":
			text = strings.TrimSpace(fetched)
		}
	}

	if text == "" {
		return "", noContentError("no text provided and fetching failed")
	}
	return text, nil
}

func (s *AnalyzeStage) monitor(ctx context.Context, req domain.Request) (string, error) {
	if req.Brand == nil {
		return "", NewStageError(StageAnalyze, domain.ErrMissingBrand)
	}
	if s.mentions == nil {
		return "", NewStageError(StageAnalyze, errNoMentions)
	}

	found, err := s.mentions.SearchMentions(ctx, *req.Brand)
	if err != nil {
		s.logger.WarnContext(ctx, "mention search failed",
			"brand", req.Brand.Name,
			"error", err)
		return "", NewStageError(StageAnalyze, errNoMentions)
	}
	for _, m := range found {
		if t := strings.TrimSpace(m.Text); t != "" {
			s.logger.InfoContext(ctx, "monitoring picked mention", "url", m.URL)
			return t, nil
		}
	}
	return "", NewStageError(StageAnalyze, errNoMentions)
}
