package transcription

import (
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
)

type keyPointDTO struct {
	Text          string    `json:"text"`
	ClusterID     int       `json:"cluster_id"`
	Embedding     []float32 `json:"embedding"`
	SimilarPoints []string  `json:"similar_points"`
	SourceOffset  int       `json:"source_offset"`
}

type transcriptionDTO struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Text      string        `json:"text"`
	KeyPoints []keyPointDTO `json:"key_points"`
	CreatedAt int64         `json:"created_at"`
}

func toDTO(t *domtr.Transcription) transcriptionDTO {
	kps := t.KeyPoints()
	points := make([]keyPointDTO, len(kps))
	for i := range kps {
		kp := &kps[i]
		points[i] = keyPointDTO{
			Text:          kp.Text(),
			ClusterID:     kp.ClusterID(),
			Embedding:     kp.Embedding(),
			SimilarPoints: kp.SimilarPoints(),
			SourceOffset:  kp.SourceOffset(),
		}
	}
	return transcriptionDTO{
		ID:        t.ID(),
		Source:    t.Source(),
		Text:      t.Text(),
		KeyPoints: points,
		CreatedAt: t.CreatedAt(),
	}
}

func (d transcriptionDTO) toDomain() domtr.Transcription {
	points := make([]keypoint.KeyPoint, len(d.KeyPoints))
	for i, p := range d.KeyPoints {
		points[i] = keypoint.New(p.Text, p.ClusterID, p.Embedding, p.SimilarPoints, p.SourceOffset)
	}
	return domtr.Reconstruct(d.ID, d.Source, d.Text, points, d.CreatedAt)
}
