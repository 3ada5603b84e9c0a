package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

// Service runs segmentation, embedding and selection in sequence.
// It holds no per-run state and is safe for concurrent use when its embedder is.
type Service struct {
	embedder Embedder
	selector *Selector
	observer Observer
}

// New creates an extraction service. The embedder is owned by the caller.
func New(embedder Embedder, selector *Selector) *Service {
	return &Service{
		embedder: embedder,
		selector: selector,
		observer: nopObserver{},
	}
}

// WithObserver subscribes o to stage events.
func (s *Service) WithObserver(o Observer) *Service {
	if o != nil {
		s.observer = o
	}
	return s
}

// ExtractKeyPoints returns the key points of text ordered by source offset.
// The first stage failure aborts the run; no partial result is returned.
func (s *Service) ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error) {
	start := time.Now()
	s.observer.Observe(ctx, Event{Stage: StagePipeline, Phase: PhaseStart, Items: len(text)})

	points, err := s.run(ctx, text)

	ev := Event{Stage: StagePipeline, Phase: PhaseEnd, Duration: time.Since(start), Err: err}
	if err == nil {
		ev.Items = len(points)
	}
	s.observer.Observe(ctx, ev)

	if err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Service) run(ctx context.Context, text string) ([]keypoint.KeyPoint, error) {
	units, err := s.segment(ctx, text)
	if err != nil {
		return nil, err
	}
	embeddings, err := s.embed(ctx, units)
	if err != nil {
		return nil, err
	}
	return s.selectPoints(ctx, units, embeddings)
}

func (s *Service) segment(ctx context.Context, text string) ([]keypoint.TextUnit, error) {
	start := time.Now()
	s.observer.Observe(ctx, Event{Stage: StageSegment, Phase: PhaseStart, Items: 1})

	units, err := Segment(text)

	s.observer.Observe(ctx, Event{
		Stage: StageSegment, Phase: PhaseEnd,
		Items: len(units), Duration: time.Since(start), Err: err,
	})
	return units, err
}

func (s *Service) embed(ctx context.Context, units []keypoint.TextUnit) ([][]float32, error) {
	start := time.Now()
	s.observer.Observe(ctx, Event{Stage: StageEmbed, Phase: PhaseStart, Items: len(units)})

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text()
	}

	var embeddings [][]float32
	res, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err == nil {
		embeddings = res.Embeddings
		err = checkDimensions(embeddings)
	}
	err = classifyEmbedError(err)

	s.observer.Observe(ctx, Event{
		Stage: StageEmbed, Phase: PhaseEnd,
		Items: len(embeddings), Duration: time.Since(start), Err: err,
	})
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (s *Service) selectPoints(
	ctx context.Context, units []keypoint.TextUnit, embeddings [][]float32,
) ([]keypoint.KeyPoint, error) {
	start := time.Now()
	s.observer.Observe(ctx, Event{Stage: StageSelect, Phase: PhaseStart, Items: len(units)})

	points, err := s.selector.Select(units, embeddings)

	s.observer.Observe(ctx, Event{
		Stage: StageSelect, Phase: PhaseEnd,
		Items: len(points), Duration: time.Since(start), Err: err,
	})
	return points, err
}

// checkDimensions rejects empty vectors and vectors of differing length.
func checkDimensions(embeddings [][]float32) error {
	for i, e := range embeddings {
		if len(e) == 0 {
			return fmt.Errorf("embedding %d is empty: %w", i, domain.ErrEmbeddingUnavailable)
		}
		if len(e) != len(embeddings[0]) {
			return fmt.Errorf("embedding %d has %d dimensions, want %d: %w",
				i, len(e), len(embeddings[0]), domain.ErrInvariantViolation)
		}
	}
	return nil
}

// classifyEmbedError makes every embedder failure match ErrEmbeddingUnavailable
// unless it already carries a pipeline error kind.
func classifyEmbedError(err error) error {
	if err == nil ||
		errors.Is(err, domain.ErrEmbeddingUnavailable) ||
		errors.Is(err, domain.ErrInvariantViolation) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
