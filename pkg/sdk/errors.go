package keypoints

import "github.com/kailas-cloud/keypoints/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrClusteringFailed       = domain.ErrClusteringFailed
	ErrInvariantViolation     = domain.ErrInvariantViolation
	ErrValidation             = domain.ErrValidation
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
)
