package pipeline

import "github.com/phrazzld/newsmaker-api/internal/domain"

// Context is the working state threaded through the stages of one run.
// It is passed by value; stages that change a slice replace it with a copy.
type Context struct {
	Input    domain.Request
	TenantID string

	// Text is the news text the analysis was run on, after monitoring and fetching.
	Text string

	Analysis *domain.Analysis

	// Snippets are retrieved past cases, most relevant first.
	Snippets []string

	Drafts []domain.Draft
	Errors []string
}

// NewContext starts a run for a request.
func NewContext(tenantID string, req domain.Request) Context {
	return Context{Input: req, TenantID: tenantID}
}

// Failed reports whether any stage recorded an error.
func (c Context) Failed() bool {
	return len(c.Errors) > 0
}

// WithError returns a copy of c with err appended to the error list.
func (c Context) WithError(err error) Context {
	errs := make([]string, len(c.Errors), len(c.Errors)+1)
	copy(errs, c.Errors)
	c.Errors = append(errs, err.Error())
	return c
}

// WithAnalysis returns a copy of c carrying the analysis and the analyzed text.
func (c Context) WithAnalysis(text string, a domain.Analysis) Context {
	c.Text = text
	c.Analysis = &a
	return c
}

// WithSnippets returns a copy of c with the retrieved snippets replaced.
func (c Context) WithSnippets(snippets []string) Context {
	c.Snippets = append([]string(nil), snippets...)
	return c
}

// WithDrafts returns a copy of c with the drafts replaced.
func (c Context) WithDrafts(drafts []domain.Draft) Context {
	c.Drafts = append([]domain.Draft(nil), drafts...)
	return c
}

// clone deep-copies the slices and the analysis so a stage cannot alias
// state held by the caller.
func (c Context) clone() Context {
	if c.Analysis != nil {
		a := *c.Analysis
		c.Analysis = &a
	}
	c.Snippets = append([]string(nil), c.Snippets...)
	c.Drafts = append([]domain.Draft(nil), c.Drafts...)
	c.Errors = append([]string(nil), c.Errors...)
	c.Input.Channels = append([]domain.Platform(nil), c.Input.Channels...)
	return c
}

// MediaPlan converts a successful run into the task result payload.
func (c Context) MediaPlan() domain.MediaPlan {
	plan := domain.MediaPlan{
		Drafts:  append([]domain.Draft{}, c.Drafts...),
		Context: append([]string{}, c.Snippets...),
	}
	if c.Analysis != nil {
		plan.Analysis = *c.Analysis
	}
	return plan
}
