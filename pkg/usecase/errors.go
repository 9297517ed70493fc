package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Validation errors
	ErrInvalidInput = errors.New("question or entry reference is required")

	// Not found errors
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUpstream marks failures of the embedding or generation backend
	ErrUpstream = errors.New("upstream model call failed")

	// ErrEmptyResponse means the model finished without usable text
	ErrEmptyResponse = errors.New("model returned an empty response")
)
