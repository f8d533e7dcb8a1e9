package domain

import "fmt"

// Category is the analyzer's classification of a news item.
type Category string

// Known categories.
const (
	CategoryCrisis     Category = "CRISIS"
	CategoryProduct    Category = "PRODUCT"
	CategoryCompetitor Category = "COMPETITOR"
	CategoryRoutine    Category = "ROUTINE"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCrisis, CategoryProduct, CategoryCompetitor, CategoryRoutine:
		return true
	}
	return false
}

// Analysis is the structured result of the first pipeline stage.
type Analysis struct {
	Summary        string   `json:"summary"`
	Facts          []string `json:"facts"`
	Quotes         []string `json:"quotes,omitempty"`
	Sentiment      string   `json:"sentiment"`
	Topics         []string `json:"topics,omitempty"`
	RelevanceScore int      `json:"relevance_score"`
	Verdict        string   `json:"pr_verdict"`
	Reasoning      string   `json:"pr_reasoning"`
	Category       Category `json:"category"`
	Tips           []string `json:"tips,omitempty"`
}

// Validate checks the score range and category.
// An empty category is normalised to ROUTINE.
func (a *Analysis) Validate() error {
	if a.RelevanceScore < 0 || a.RelevanceScore > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidScore, a.RelevanceScore)
	}
	if a.Category == "" {
		a.Category = CategoryRoutine
	}
	if !a.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, a.Category)
	}
	return nil
}
