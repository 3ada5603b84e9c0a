package app

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/cluster/kmeans"
	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/usecase/extraction"
)

// ExtractionOptions tunes clustering. Zero values select the defaults.
type ExtractionOptions struct {
	Seed          int64
	MaxIterations int
	Restarts      int
	MinClusters   int
	MaxClusters   int
}

// DefaultExtractionOptions returns the default seed with default bounds.
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{Seed: extraction.DefaultSeed}
}

// NewExtractor wires k-means clustering, the selector and the instrumented
// observer around embedder.
func NewExtractor(embedder domain.Embedder, opts ExtractionOptions, logger *zap.Logger) *extraction.Service {
	clusterer := kmeans.New(
		kmeans.WithMaxIterations(opts.MaxIterations),
		kmeans.WithRestarts(opts.Restarts),
	)
	selector := extraction.NewSelector(clusterer).
		WithSeed(opts.Seed).
		WithClusterBounds(opts.MinClusters, opts.MaxClusters)

	return extraction.New(embedder, selector).
		WithObserver(extraction.NewInstrumentedObserver(logger))
}
