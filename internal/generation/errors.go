package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when a reasoning call fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse is returned when the LLM response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the provider configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrDecode is returned when a model reply cannot be decoded into an analysis
	ErrDecode = errors.New("failed to decode analysis")

	// ErrUnknownProvider is returned when no provider is registered under a name
	// and there is no default to fall back to
	ErrUnknownProvider = errors.New("unknown model provider")
)
