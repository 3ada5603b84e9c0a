// Package transcription holds the stored result of one extraction run.
package transcription

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

// MaxTextSize is the maximum transcription text size in bytes.
const MaxTextSize = 1 << 20

// Transcription is a source text together with the key points extracted from it.
type Transcription struct {
	id        string
	source    string
	text      string
	keyPoints []keypoint.KeyPoint
	createdAt int64
}

// New validates and creates a Transcription. createdAt is unix milliseconds.
func New(id, source, text string, keyPoints []keypoint.KeyPoint, createdAt int64) (Transcription, error) {
	if id == "" {
		return Transcription{}, fmt.Errorf("transcription ID is required")
	}
	if strings.TrimSpace(text) == "" {
		return Transcription{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Transcription{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	return Reconstruct(id, source, text, keyPoints, createdAt), nil
}

// Reconstruct creates a Transcription without validation (storage hydration).
func Reconstruct(id, source, text string, keyPoints []keypoint.KeyPoint, createdAt int64) Transcription {
	return Transcription{
		id:        id,
		source:    source,
		text:      text,
		keyPoints: keyPoints,
		createdAt: createdAt,
	}
}

// ID returns the transcription identifier.
func (t *Transcription) ID() string { return t.id }

// Source returns a free-form label of where the text came from (file name, meeting title).
func (t *Transcription) Source() string { return t.source }

// Text returns the full source text.
func (t *Transcription) Text() string { return t.text }

// KeyPoints returns the extracted key points in reading order.
func (t *Transcription) KeyPoints() []keypoint.KeyPoint { return t.keyPoints }

// CreatedAt returns the creation time in unix milliseconds.
func (t *Transcription) CreatedAt() int64 { return t.createdAt }

// HasKeyPoint reports whether text equals one of the extracted key points or their similar points.
func (t *Transcription) HasKeyPoint(text string) bool {
	for i := range t.keyPoints {
		kp := &t.keyPoints[i]
		if kp.Text() == text {
			return true
		}
		for _, s := range kp.SimilarPoints() {
			if s == text {
				return true
			}
		}
	}
	return false
}
