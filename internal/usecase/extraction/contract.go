package extraction

import (
	"context"

	"github.com/kailas-cloud/keypoints/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Clusterer partitions embeddings into k groups and returns the group label of each item.
// Implementations must be deterministic for a given seed.
type Clusterer interface {
	Cluster(embeddings [][]float32, k int, seed int64) ([]int, error)
}

// Observer receives stage-start and stage-end events of a pipeline run.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}
