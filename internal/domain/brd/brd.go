// Package brd holds the Business Requirements Document aggregate and its Markdown composition.
package brd

import (
	"fmt"
	"strings"
)

// MaxSelectedPoints caps the number of key points a single BRD may be built from.
const MaxSelectedPoints = 200

// BRD is a drafted Business Requirements Document (immutable value object).
type BRD struct {
	id              string
	transcriptionID string
	selected        []string
	content         string
	embedding       []float32
	createdAt       int64
}

// ValidateSelection checks the selected key points before a BRD is drafted.
func ValidateSelection(selected []string) error {
	if len(selected) == 0 {
		return fmt.Errorf("no key points selected")
	}
	if len(selected) > MaxSelectedPoints {
		return fmt.Errorf("too many key points selected (max %d)", MaxSelectedPoints)
	}
	for i, p := range selected {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("selected key point %d is empty", i)
		}
	}
	return nil
}

// New validates and creates a BRD.
func New(id, transcriptionID string, selected []string, content string, embedding []float32, createdAt int64) (BRD, error) {
	if id == "" {
		return BRD{}, fmt.Errorf("BRD ID is required")
	}
	if transcriptionID == "" {
		return BRD{}, fmt.Errorf("transcription ID is required")
	}
	if err := ValidateSelection(selected); err != nil {
		return BRD{}, err
	}
	if content == "" {
		return BRD{}, fmt.Errorf("content is required")
	}
	return Reconstruct(id, transcriptionID, selected, content, embedding, createdAt), nil
}

// Reconstruct creates a BRD without validation (storage hydration).
func Reconstruct(id, transcriptionID string, selected []string, content string, embedding []float32, createdAt int64) BRD {
	s := make([]string, len(selected))
	copy(s, selected)
	return BRD{
		id:              id,
		transcriptionID: transcriptionID,
		selected:        s,
		content:         content,
		embedding:       embedding,
		createdAt:       createdAt,
	}
}

// ID returns the BRD identifier.
func (b *BRD) ID() string { return b.id }

// TranscriptionID returns the transcription the key points were selected from.
func (b *BRD) TranscriptionID() string { return b.transcriptionID }

// SelectedKeyPoints returns the key points the document was drafted from.
func (b *BRD) SelectedKeyPoints() []string { return b.selected }

// Content returns the Markdown document.
func (b *BRD) Content() string { return b.content }

// Embedding returns the mean embedding of the selected key points.
func (b *BRD) Embedding() []float32 { return b.embedding }

// CreatedAt returns the creation time in unix milliseconds.
func (b *BRD) CreatedAt() int64 { return b.createdAt }
