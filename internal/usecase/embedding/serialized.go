package embedding

import (
	"context"
	"sync"

	"github.com/kailas-cloud/keypoints/internal/domain"
)

// SerializedEmbedder allows one model invocation at a time, for providers
// that are not safe for concurrent use.
type SerializedEmbedder struct {
	mu    sync.Mutex
	inner domain.Embedder
}

// NewSerializedEmbedder guards inner with a mutex.
func NewSerializedEmbedder(inner domain.Embedder) *SerializedEmbedder {
	return &SerializedEmbedder{inner: inner}
}

// Embed implements domain.Embedder.
func (s *SerializedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Embed(ctx, text)
}

// BatchEmbed implements domain.BatchEmbedder. The lock is held for the whole batch.
func (s *SerializedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if be, ok := s.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.inner, texts)
}

// HealthCheck forwards to inner when it supports health checks.
func (s *SerializedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := s.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
