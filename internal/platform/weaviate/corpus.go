package weaviate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/phrazzld/newsmaker-api/internal/retrieval"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Defaults for the BrandCase class.
const (
	DefaultClassName  = "BrandCase"
	DefaultVectorizer = "text2vec-transformers"
)

// Property names of the BrandCase class.
const (
	propCaseID   = "caseId"
	propText     = "text"
	propTenantID = "tenantId"
)

// caseNamespace seeds deterministic object ids so re-adding a case id
// addresses the same Weaviate object.
var caseNamespace = uuid.MustParse("6f1c1a52-4cf0-4b1e-9d0e-1c8f3f0b7a11")

// ErrNilClient is returned when no Weaviate client is supplied.
var ErrNilClient = errors.New("weaviate client cannot be nil")

// Config configures the corpus.
type Config struct {
	ClassName  string
	Vectorizer string
}

// Corpus is a retrieval.Corpus backed by Weaviate.
type Corpus struct {
	client *weaviate.Client
	config Config
	logger *slog.Logger
}

var _ retrieval.Corpus = (*Corpus)(nil)

// NewClient builds a Weaviate client from a base URL such as http://localhost:8081.
func NewClient(rawURL string) (*weaviate.Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weaviate url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q: missing host", rawURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: scheme})
}

// NewCorpus creates a Corpus over the configured class.
func NewCorpus(client *weaviate.Client, config Config, logger *slog.Logger) (*Corpus, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if config.ClassName == "" {
		config.ClassName = DefaultClassName
	}
	if config.Vectorizer == "" {
		config.Vectorizer = DefaultVectorizer
	}
	return &Corpus{
		client: client,
		config: config,
		logger: logger.With("component", "weaviate_corpus", "class", config.ClassName),
	}, nil
}

// ObjectID returns the Weaviate object id for a case id.
func ObjectID(caseID string) string {
	return uuid.NewSHA1(caseNamespace, []byte(caseID)).String()
}

// Schema returns the class definition for brand cases.
func (c *Corpus) Schema() *models.Class {
	indexFilterable := true
	return &models.Class{
		Class:       c.config.ClassName,
		Description: "A past brand case promoted to the knowledge base.",
		Vectorizer:  c.config.Vectorizer,
		Properties: []*models.Property{
			{Name: propCaseID, DataType: []string{"text"}, IndexFilterable: &indexFilterable},
			{Name: propText, DataType: []string{"text"}},
			{Name: propTenantID, DataType: []string{"text"}, IndexFilterable: &indexFilterable},
		},
	}
}

// EnsureSchema creates the class when it does not exist yet.
func (c *Corpus) EnsureSchema(ctx context.Context) error {
	if _, err := c.client.Schema().ClassGetter().WithClassName(c.config.ClassName).Do(ctx); err == nil {
		c.logger.DebugContext(ctx, "schema already exists")
		return nil
	}

	c.logger.InfoContext(ctx, "schema not found, creating it")
	if err := c.client.Schema().ClassCreator().WithClass(c.Schema()).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", c.config.ClassName, err)
	}
	return nil
}

// Search implements retrieval.Corpus.
func (c *Corpus) Search(ctx context.Context, text string, tenantID *string, k int) ([]retrieval.Candidate, error) {
	nearText := c.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{text})

	query := c.client.GraphQL().Get().
		WithClassName(c.config.ClassName).
		WithFields(
			graphql.Field{Name: propText},
			graphql.Field{Name: "_additional { distance }"},
		).
		WithNearText(nearText).
		WithLimit(k)

	if tenantID != nil {
		query = query.WithWhere(filters.Where().
			WithPath([]string{propTenantID}).
			WithOperator(filters.Equal).
			WithValueString(*tenantID))
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	return parseCandidates(result, c.config.ClassName), nil
}

// Upsert implements retrieval.Corpus. The object id is derived from the case id,
// so an existing object is replaced rather than duplicated.
func (c *Corpus) Upsert(ctx context.Context, doc retrieval.Document) error {
	id := ObjectID(doc.ID)
	props := map[string]interface{}{
		propCaseID:   doc.ID,
		propText:     doc.Text,
		propTenantID: doc.TenantID,
	}

	exists, err := c.client.Data().Checker().
		WithClassName(c.config.ClassName).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("checking case %s: %w", doc.ID, err)
	}

	if exists {
		err = c.client.Data().Updater().
			WithClassName(c.config.ClassName).
			WithID(id).
			WithProperties(props).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("replacing case %s: %w", doc.ID, err)
		}
		return nil
	}

	_, err = c.client.Data().Creator().
		WithClassName(c.config.ClassName).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("creating case %s: %w", doc.ID, err)
	}
	return nil
}

// parseCandidates extracts text and distance from a GraphQL Get response.
// Objects without a distance are skipped.
func parseCandidates(result *models.GraphQLResponse, className string) []retrieval.Candidate {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []retrieval.Candidate{}
	}

	objects, ok := data[className].([]interface{})
	if !ok {
		return []retrieval.Candidate{}
	}

	candidates := make([]retrieval.Candidate, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}
		text, _ := m[propText].(string)
		additional, ok := m["_additional"].(map[string]interface{})
		if !ok {
			continue
		}
		distance, ok := additional["distance"].(float64)
		if !ok {
			continue
		}
		candidates = append(candidates, retrieval.Candidate{Text: text, Distance: distance})
	}
	return candidates
}
