package domain

import "errors"

var (
	// ErrInvalidInput signals text that cannot be segmented (blank or not UTF-8).
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable signals that the embedding model could not be loaded or invoked.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrClusteringFailed signals an invalid cluster count or a malformed assignment.
	ErrClusteringFailed = errors.New("clustering failed")
	// ErrInvariantViolation signals a caller bug, e.g. units and embeddings of different length.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals a request that fails business validation.
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token quota.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)
