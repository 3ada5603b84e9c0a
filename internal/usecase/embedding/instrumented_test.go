package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchCalls int
	batchSizes []int
	shortByOne bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	n := len(texts)
	if m.shortByOne {
		n--
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.result.PromptTokens * len(texts),
		TotalTokens:  m.result.TotalTokens * len(texts),
	}, nil
}

// plainMockEmbedder implements only Embedder, not BatchEmbedder.
type plainMockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 7,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	result, err := p.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
	if usage.Calls != 1 || usage.TotalTokens != 7 {
		t.Errorf("expected usage 1 call / 7 tokens, got %+v", *usage)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	cause := fmt.Errorf("api error")
	inner := &mockEmbedder{err: cause}
	p := NewInstrumentedEmbedder(inner, "test-err", "test-model-e", nil, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestInstrumentedEmbedder_QuotaRejection(t *testing.T) {
	quota := NewQuota("test-quota", 100, QuotaActionReject, zap.NewNop())
	quota.Record(100)

	inner := &plainMockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test-quota", "test-model-q", quota, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected domain.ErrEmbeddingQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider must not be called after rejection, got %d calls", inner.calls)
	}
}

func TestInstrumentedEmbedder_RecordsQuota(t *testing.T) {
	quota := NewQuota("test-record", 1000000, QuotaActionReject, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 500,
	}}
	p := NewInstrumentedEmbedder(inner, "test-record", "test-model-r", quota, zap.NewNop())

	before := quota.Remaining()
	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := before - quota.Remaining(); got != 500 {
		t.Errorf("expected remaining to decrease by 500, got %d", got)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2},
		TotalTokens: 10,
	}}
	p := NewInstrumentedEmbedder(inner, "test-batch", "test-model-b", nil, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 30 {
		t.Errorf("expected 30 tokens, got %d", res.TotalTokens)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", inner.batchCalls)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}}
	p := NewInstrumentedEmbedder(inner, "test-chunks", "model", nil, zap.NewNop())

	texts := make([]string, 2*DefaultMaxAPIBatchSize+10)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	want := []int{DefaultMaxAPIBatchSize, DefaultMaxAPIBatchSize, 10}
	if fmt.Sprint(inner.batchSizes) != fmt.Sprint(want) {
		t.Errorf("expected chunk sizes %v, got %v", want, inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil for empty input")
	}
	if inner.batchCalls != 0 {
		t.Errorf("expected no provider call, got %d", inner.batchCalls)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_QuotaRejection(t *testing.T) {
	quota := NewQuota("test-batch-quota", 100, QuotaActionReject, zap.NewNop())
	quota.Record(100)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test-batch-quota", "model", quota, zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Errorf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_RecordsQuotaAndUsage(t *testing.T) {
	quota := NewQuota("test-batch-rec", 1000000, QuotaActionReject, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 100}}
	p := NewInstrumentedEmbedder(inner, "test-batch-rec", "model", quota, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	before := quota.Remaining()
	if _, err := p.BatchEmbed(ctx, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := before - quota.Remaining(); got != 300 {
		t.Errorf("expected quota decrease of 300, got %d", got)
	}
	if usage.TotalTokens != 300 {
		t.Errorf("expected usage of 300 tokens, got %d", usage.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{batchErr: fmt.Errorf("api error")}
	p := NewInstrumentedEmbedder(inner, "test-err", "model", nil, zap.NewNop())

	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}, shortByOne: true}
	p := NewInstrumentedEmbedder(inner, "test-short", "model", nil, zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &plainMockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 5}}
	p := NewInstrumentedEmbedder(inner, "test-fb", "model", nil, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 fallback Embed calls, got %d", inner.calls)
	}
}

type healthyMockEmbedder struct {
	plainMockEmbedder
	healthErr error
}

func (m *healthyMockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("provider down")
	emb := NewInstrumentedEmbedder(&healthyMockEmbedder{healthErr: down}, "ollama", "all-minilm", nil, zap.NewNop())
	if err := emb.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected forwarded error, got %v", err)
	}

	plain := NewInstrumentedEmbedder(&plainMockEmbedder{}, "ollama", "all-minilm", nil, zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("inner without health check: got %v", err)
	}
}
