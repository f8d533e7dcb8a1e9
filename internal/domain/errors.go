// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownPlatform is returned when a channel name is not one of the supported platforms.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrInvalidScore is returned when a relevance score falls outside [0,100].
	ErrInvalidScore = errors.New("relevance score out of range")

	// ErrInvalidCategory is returned when an analysis category is not recognised.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidMode is returned when a request mode is neither pr nor blogger.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrMissingBrand is returned when monitoring is requested without a brand profile.
	ErrMissingBrand = errors.New("brand profile required for monitoring")
)
