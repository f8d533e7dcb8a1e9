package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is recorded when there is no usable input to analyze.
	ErrNoContent = errors.New("no content")

	// ErrNoAnalysis is recorded when a stage needs an analysis that is missing.
	ErrNoAnalysis = errors.New("no analysis available")

	// ErrNilDependency is returned by stage constructors when a required collaborator is nil.
	ErrNilDependency = errors.New("required dependency is nil")
)

// StageError wraps the failure of a stage's external call.
type StageError struct {
	Stage string
	Err   error
}

// Error implements error.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err as a failure of stage.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// noContentError builds the message recorded for absent input.
func noContentError(detail string) error {
	return fmt.Errorf("%w: %s", ErrNoContent, detail)
}
