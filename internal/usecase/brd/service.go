package brd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/keypoints/internal/domain"
	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
	"github.com/kailas-cloud/keypoints/internal/domain/vector"
)

// DefaultSimilarityThreshold is the minimum cosine score for Similar.
const DefaultSimilarityThreshold = 0.85

// Match is a stored BRD scored against a set of key points.
type Match struct {
	BRD   dombrd.BRD
	Score float64
}

// Service drafts BRDs from selected key points and finds related ones.
type Service struct {
	repo           Repository
	transcriptions TranscriptionReader
	embedder       Embedder
	now            func() time.Time
	newID          func() string
}

// New creates a BRD service.
func New(repo Repository, transcriptions TranscriptionReader, embedder Embedder) *Service {
	return &Service{
		repo:           repo,
		transcriptions: transcriptions,
		embedder:       embedder,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Create renders a BRD from the selected key points of a transcription and stores it.
func (s *Service) Create(ctx context.Context, transcriptionID string, selected []string) (dombrd.BRD, error) {
	if strings.TrimSpace(transcriptionID) == "" {
		return dombrd.BRD{}, fmt.Errorf("transcription ID is required: %w", domain.ErrValidation)
	}
	if err := dombrd.ValidateSelection(selected); err != nil {
		return dombrd.BRD{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if _, err := s.transcriptions.Get(ctx, transcriptionID); err != nil {
		return dombrd.BRD{}, fmt.Errorf("get transcription: %w", err)
	}

	emb, err := s.meanEmbedding(ctx, selected)
	if err != nil {
		return dombrd.BRD{}, err
	}

	now := s.now()
	content := dombrd.Compose(selected, now)
	b, err := dombrd.New(s.newID(), transcriptionID, selected, content, emb, now.UnixMilli())
	if err != nil {
		return dombrd.BRD{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.repo.Save(ctx, &b); err != nil {
		return dombrd.BRD{}, fmt.Errorf("save brd: %w", err)
	}
	return b, nil
}

// Get returns a stored BRD by ID.
func (s *Service) Get(ctx context.Context, id string) (dombrd.BRD, error) {
	if strings.TrimSpace(id) == "" {
		return dombrd.BRD{}, fmt.Errorf("BRD ID is required: %w", domain.ErrValidation)
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return dombrd.BRD{}, fmt.Errorf("get brd: %w", err)
	}
	return b, nil
}

// Similar returns stored BRDs whose mean embedding scores at least threshold
// against the mean embedding of points, best first. A non-positive threshold
// selects DefaultSimilarityThreshold.
func (s *Service) Similar(ctx context.Context, points []string, threshold float64) ([]Match, error) {
	if err := dombrd.ValidateSelection(points); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if threshold > 1 {
		return nil, fmt.Errorf("threshold %.2f exceeds 1: %w", threshold, domain.ErrValidation)
	}

	query, err := s.meanEmbedding(ctx, points)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brds: %w", err)
	}

	var matches []Match
	for i := range stored {
		emb := stored[i].Embedding()
		if len(emb) != len(query) {
			continue
		}
		if score := vector.Cosine(query, emb); score >= threshold {
			matches = append(matches, Match{BRD: stored[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].BRD.ID() < matches[j].BRD.ID()
	})
	return matches, nil
}

func (s *Service) meanEmbedding(ctx context.Context, points []string) ([]float32, error) {
	formatted := make([]string, len(points))
	for i, p := range points {
		formatted[i] = dombrd.FormatPoint(p)
	}

	res, err := domain.EmbedAll(ctx, s.embedder, formatted)
	if err != nil {
		return nil, fmt.Errorf("embed key points: %w", err)
	}

	mean := vector.Mean(res.Embeddings)
	if len(mean) == 0 {
		return nil, fmt.Errorf("empty embedding for key points: %w", domain.ErrEmbeddingUnavailable)
	}
	return mean, nil
}
