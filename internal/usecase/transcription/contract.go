package transcription

import (
	"context"

	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
)

// Extractor turns raw text into ranked key points.
type Extractor interface {
	ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error)
}

// Repository defines the storage contract for transcriptions.
type Repository interface {
	Save(ctx context.Context, t *domtr.Transcription) error
	Get(ctx context.Context, id string) (domtr.Transcription, error)
}
