package generation

import "context"

// Prompt is one request to a reasoning service.
type Prompt struct {
	// System is the system instruction, may be empty.
	System string

	// User is the main prompt text.
	User string

	// JSON asks the provider for a JSON-only reply when it supports that.
	JSON bool
}

// Reasoner defines the interface for calling an external reasoning service.
// This interface serves as a boundary between the pipeline and LLM providers,
// following the hexagonal architecture pattern.
type Reasoner interface {
	// Complete returns the model's text reply to the prompt.
	// Errors wrap the sentinels in errors.go.
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, prompt Prompt) (string, error)

// Complete implements Reasoner.
func (f ReasonerFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}
