package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/domain"
)

// DefaultImageBaseURL is the image generation endpoint prompts are encoded into.
const DefaultImageBaseURL = "https://image.pollinations.ai/prompt/"

// URLImageResolver builds an image URL by path-encoding the prompt onto a base URL.
type URLImageResolver struct {
	BaseURL string
}

// Resolve implements ImageResolver.
func (r URLImageResolver) Resolve(_ context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("empty image prompt")
	}
	base := r.BaseURL
	if base == "" {
		base = DefaultImageBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(prompt) + "?nologo=true", nil
}

// EnrichStage attaches image URLs to drafts that carry an image prompt.
type EnrichStage struct {
	images ImageResolver
	logger *slog.Logger
}

// NewEnrichStage creates the Enrich stage. A nil resolver uses URLImageResolver defaults.
func NewEnrichStage(images ImageResolver, logger *slog.Logger) *EnrichStage {
	if images == nil {
		images = URLImageResolver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichStage{
		images: images,
		logger: logger.With("component", "enrich_stage"),
	}
}

// Name implements Stage.
func (s *EnrichStage) Name() string { return StageEnrich }

// Run implements Stage. Image failures leave ImageURL empty.
func (s *EnrichStage) Run(ctx context.Context, pc Context) Context {
	drafts := make([]domain.Draft, len(pc.Drafts))
	copy(drafts, pc.Drafts)

	for i := range drafts {
		d := &drafts[i]
		if !d.Platform.SupportsImage() || strings.TrimSpace(d.ImagePrompt) == "" {
			continue
		}
		link, err := s.images.Resolve(ctx, d.ImagePrompt)
		if err != nil {
			s.logger.WarnContext(ctx, "image resolution failed",
				"platform", d.Platform,
				"error", err)
			continue
		}
		d.ImageURL = link
	}
	return pc.WithDrafts(drafts)
}
