package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent to the provider in one request.
const DefaultMaxAPIBatchSize = 256

// QuotaChecker is the local interface for quota enforcement.
type QuotaChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Remaining() int64
}

// InstrumentedEmbedder wraps an Embedder with quota enforcement, usage accounting and logging.
// Request metrics are recorded by the provider transports.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	quota    QuotaChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. quota may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	quota QuotaChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		quota:    quota,
		logger:   logger,
	}
}

// Embed checks the quota, delegates to the inner embedder and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := p.checkQuota(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.recordUsage(ctx, result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed checks the quota, splits texts into provider-sized chunks and delegates.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := p.checkQuota(ctx, len(texts)); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// embedChunked embeds texts DefaultMaxAPIBatchSize at a time, re-checking the quota per chunk.
func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		if offset > 0 {
			if err := p.checkQuota(ctx, len(texts)-offset); err != nil {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk %d: %w", offset, err)
			}
		}

		end := min(offset+DefaultMaxAPIBatchSize, len(texts))
		chunk := texts[offset:end]

		res, err := p.embedInner(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		if len(res.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"provider returned %d vectors for %d texts: %w",
				len(res.Embeddings), len(chunk), domain.ErrInvariantViolation,
			)
		}
		p.recordUsage(ctx, res.TotalTokens)

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

func (p *InstrumentedEmbedder) embedInner(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchFallback(ctx, p.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) checkQuota(ctx context.Context, items int) error {
	if p.quota == nil {
		return nil
	}
	if err := p.quota.Check(ctx); err != nil {
		p.logger.Error("Embedding quota exceeded",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("items", items),
			zap.Error(err),
		)
		return fmt.Errorf("quota check: %w", err)
	}
	return nil
}

// recordUsage charges tokens to the quota and to the per-request usage in ctx.
func (p *InstrumentedEmbedder) recordUsage(ctx context.Context, tokens int) {
	domain.UsageFromContext(ctx).Add(tokens)

	if p.quota == nil || tokens <= 0 {
		return
	}
	p.quota.Record(int64(tokens))
	metrics.EmbeddingQuotaTokensRemaining.WithLabelValues(p.provider).Set(float64(p.quota.Remaining()))
}

// HealthCheck forwards to inner when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
