package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/keypoints/internal/domain"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
)

// Service extracts key points from uploaded text and keeps the result.
type Service struct {
	extractor Extractor
	repo      Repository
	now       func() time.Time
	newID     func() string
}

// New creates a transcription service.
func New(extractor Extractor, repo Repository) *Service {
	return &Service{
		extractor: extractor,
		repo:      repo,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Process extracts key points from text and stores the transcription.
// Extraction errors are returned unchanged so callers can classify them.
func (s *Service) Process(ctx context.Context, source, text string) (domtr.Transcription, error) {
	if len(text) > domtr.MaxTextSize {
		return domtr.Transcription{}, fmt.Errorf(
			"text too large (max %d bytes): %w", domtr.MaxTextSize, domain.ErrValidation,
		)
	}

	points, err := s.extractor.ExtractKeyPoints(ctx, text)
	if err != nil {
		return domtr.Transcription{}, fmt.Errorf("extract key points: %w", err)
	}

	t, err := domtr.New(s.newID(), strings.TrimSpace(source), text, points, s.now().UnixMilli())
	if err != nil {
		return domtr.Transcription{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.repo.Save(ctx, &t); err != nil {
		return domtr.Transcription{}, fmt.Errorf("save transcription: %w", err)
	}
	return t, nil
}

// Get returns a stored transcription by ID.
func (s *Service) Get(ctx context.Context, id string) (domtr.Transcription, error) {
	if strings.TrimSpace(id) == "" {
		return domtr.Transcription{}, fmt.Errorf("transcription ID is required: %w", domain.ErrValidation)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtr.Transcription{}, fmt.Errorf("get transcription: %w", err)
	}
	return t, nil
}
