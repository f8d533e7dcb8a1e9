package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Default query parameters.
const (
	DefaultK                 = 3
	DefaultDistanceThreshold = 1.5
)

// MetadataTenantKey is the metadata key holding the owning tenant of a case.
const MetadataTenantKey = "tenant_id"

// Errors returned by the Engine.
var (
	ErrNilCorpus   = errors.New("corpus cannot be nil")
	ErrEmptyTenant = errors.New("tenant id cannot be empty")
	ErrEmptyID     = errors.New("case id cannot be empty")
	ErrEmptyText   = errors.New("case text cannot be empty")
)

// Candidate is a single search hit. Lower distance means more similar.
type Candidate struct {
	Text     string
	Distance float64
}

// Document is one case stored in the corpus.
type Document struct {
	ID       string
	Text     string
	TenantID string
	Metadata map[string]string
}

// Corpus is the nearest-neighbour index the Engine queries.
type Corpus interface {
	// Search returns up to k candidates nearest to text. A nil tenantID
	// searches every tenant. Candidates that tie on distance must keep
	// corpus insertion order.
	Search(ctx context.Context, text string, tenantID *string, k int) ([]Candidate, error)

	// Upsert stores doc, replacing any document with the same ID.
	Upsert(ctx context.Context, doc Document) error
}

// Options tune a single query. Zero values fall back to the engine defaults.
type Options struct {
	TenantID          *string
	K                 int
	DistanceThreshold float64
}

// Config holds the engine defaults.
type Config struct {
	K                 int
	DistanceThreshold float64
}

// DefaultConfig returns the standard k=3, threshold=1.5 configuration.
func DefaultConfig() Config {
	return Config{K: DefaultK, DistanceThreshold: DefaultDistanceThreshold}
}

// Engine runs threshold-filtered similarity queries over a Corpus.
type Engine struct {
	corpus Corpus
	config Config
	logger *slog.Logger
}

// NewEngine creates an Engine. Non-positive config values are replaced by defaults.
func NewEngine(corpus Corpus, config Config, logger *slog.Logger) (*Engine, error) {
	if corpus == nil {
		return nil, ErrNilCorpus
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.K <= 0 {
		config.K = DefaultK
	}
	if config.DistanceThreshold <= 0 {
		config.DistanceThreshold = DefaultDistanceThreshold
	}
	return &Engine{
		corpus: corpus,
		config: config,
		logger: logger.With("component", "retrieval_engine"),
	}, nil
}

// Query searches the corpus and returns the texts of the candidates within the
// distance threshold, most similar first. An empty corpus or a fully filtered
// result yields an empty slice and no error.
func (e *Engine) Query(ctx context.Context, text string, opts Options) ([]string, error) {
	k := opts.K
	if k <= 0 {
		k = e.config.K
	}
	threshold := opts.DistanceThreshold
	if threshold <= 0 {
		threshold = e.config.DistanceThreshold
	}

	candidates, err := e.corpus.Search(ctx, text, opts.TenantID, k)
	if err != nil {
		return nil, fmt.Errorf("corpus search failed: %w", err)
	}

	return Filter(candidates, k, threshold), nil
}

// QueryTenant searches only the cases owned by tenantID.
func (e *Engine) QueryTenant(ctx context.Context, tenantID, text string) ([]string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrEmptyTenant
	}
	return e.Query(ctx, text, Options{TenantID: &tenantID})
}

// QueryGlobal searches every tenant's cases. Only maintenance paths call it.
func (e *Engine) QueryGlobal(ctx context.Context, text string) ([]string, error) {
	e.logger.DebugContext(ctx, "global corpus query")
	return e.Query(ctx, text, Options{})
}

// AddCase stores a case under id, overwriting any previous case with that id.
// The owning tenant is read from metadata under MetadataTenantKey.
func (e *Engine) AddCase(ctx context.Context, id, text string, metadata map[string]string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	doc := Document{
		ID:       id,
		Text:     text,
		TenantID: meta[MetadataTenantKey],
		Metadata: meta,
	}
	if err := e.corpus.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("failed to add case %s: %w", id, err)
	}

	e.logger.InfoContext(ctx, "case added to corpus",
		"case_id", id,
		"tenant_id", doc.TenantID)
	return nil
}

// Filter orders candidates by ascending distance (ties keep input order),
// keeps at most k and drops every candidate whose distance exceeds threshold.
func Filter(candidates []Candidate, k int, threshold float64) []string {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}

	out := make([]string, 0, len(sorted))
	for _, c := range sorted {
		if c.Distance > threshold {
			continue
		}
		out = append(out, c.Text)
	}
	return out
}
