package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/generation"
)

// DefaultComposeParallel bounds concurrent draft generation per task.
const DefaultComposeParallel = 3

// ComposeStage writes one draft per configured channel.
type ComposeStage struct {
	providers ReasonerResolver
	parallel  int
	logger    *slog.Logger
}

// NewComposeStage creates the Compose stage. parallel <= 0 uses DefaultComposeParallel.
func NewComposeStage(providers ReasonerResolver, parallel int, logger *slog.Logger) (*ComposeStage, error) {
	if providers == nil {
		return nil, fmt.Errorf("%w: providers", ErrNilDependency)
	}
	if parallel <= 0 {
		parallel = DefaultComposeParallel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ComposeStage{
		providers: providers,
		parallel:  parallel,
		logger:    logger.With("component", "compose_stage"),
	}, nil
}

// Name implements Stage.
func (s *ComposeStage) Name() string { return StageCompose }

// Run implements Stage. A channel whose generation fails is left out; the
// remaining drafts keep the channel order of the request.
func (s *ComposeStage) Run(ctx context.Context, pc Context) Context {
	if pc.Analysis == nil {
		return pc.WithError(NewStageError(StageCompose, ErrNoAnalysis))
	}

	reasoner, err := s.providers.Resolve(pc.Input.ModelProvider)
	if err != nil {
		return pc.WithError(NewStageError(StageCompose, err))
	}

	channels := uniqueChannels(pc.Input.EffectiveChannels())
	results := make([]*domain.Draft, len(channels))
	analysis := *pc.Analysis

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, platform := range channels {
		g.Go(func() error {
			prompt := generation.DraftPrompt(pc.Input, analysis, pc.Snippets, platform)
			raw, err := reasoner.Complete(gctx, prompt)
			if err != nil {
				s.logger.WarnContext(ctx, "draft generation failed, omitting channel",
					"platform", platform,
					"error", err)
				return nil
			}
			content, imagePrompt := generation.SplitDraft(raw)
			if !platform.SupportsImage() {
				imagePrompt = ""
			}
			results[i] = &domain.Draft{
				Platform:    platform,
				Content:     content,
				ImagePrompt: imagePrompt,
				Status:      domain.DraftStatusDraft,
			}
			return nil
		})
	}
	_ = g.Wait()

	drafts := make([]domain.Draft, 0, len(channels))
	for _, d := range results {
		if d != nil {
			drafts = append(drafts, *d)
		}
	}
	return pc.WithDrafts(drafts)
}

func uniqueChannels(in []domain.Platform) []domain.Platform {
	seen := make(map[domain.Platform]bool, len(in))
	out := make([]domain.Platform, 0, len(in))
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
