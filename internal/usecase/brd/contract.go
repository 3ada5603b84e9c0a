package brd

import (
	"context"

	"github.com/kailas-cloud/keypoints/internal/domain"
	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
)

// Repository defines the storage contract for BRDs.
type Repository interface {
	Save(ctx context.Context, b *dombrd.BRD) error
	Get(ctx context.Context, id string) (dombrd.BRD, error)
	List(ctx context.Context) ([]dombrd.BRD, error)
}

// TranscriptionReader loads the transcription a BRD is drafted from.
type TranscriptionReader interface {
	Get(ctx context.Context, id string) (domtr.Transcription, error)
}

// Embedder vectorizes selected key points.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
