package pipeline

import (
	"context"

	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/generation"
)

// ReasonerResolver selects a Reasoner by provider name.
// Implemented by generation.Providers.
type ReasonerResolver interface {
	Resolve(name string) (generation.Reasoner, error)
}

// Fetcher retrieves article text from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// MentionSearcher finds recent news mentioning a brand.
type MentionSearcher interface {
	SearchMentions(ctx context.Context, brand domain.BrandProfile) ([]domain.Mention, error)
}

// Retriever returns past-case snippets relevant to a query, scoped to a tenant.
// Implemented by retrieval.Engine.
type Retriever interface {
	QueryTenant(ctx context.Context, tenantID, text string) ([]string, error)
}

// ImageResolver turns an image prompt into an image URL.
type ImageResolver interface {
	Resolve(ctx context.Context, prompt string) (string, error)
}
