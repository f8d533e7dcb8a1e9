package fetch

import (
	"context"
	"fmt"

	"github.com/phrazzld/newsmaker-api/internal/domain"
)

// MockMentionURL is the url of the placeholder mention.
const MockMentionURL = "https://example.com/mock-news"

// StaticMentions is a MentionSearcher used when no news search backend is
// configured. It returns one placeholder item about the brand.
type StaticMentions struct{}

// SearchMentions implements pipeline.MentionSearcher.
func (StaticMentions) SearchMentions(_ context.Context, brand domain.BrandProfile) ([]domain.Mention, error) {
	return []domain.Mention{{
		URL:  MockMentionURL,
		Text: fmt.Sprintf("Mock news about %s. They released a new amazing product that changes the market.", brand.Name),
	}}, nil
}
