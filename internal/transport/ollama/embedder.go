// Package ollama embeds text through a local Ollama server (/api/embed).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/metrics"
)

// DefaultBaseURL is where a local Ollama listens by default.
const DefaultBaseURL = "http://localhost:11434"

// Config holds the Ollama provider settings.
type Config struct {
	BaseURL    string
	Model      string // must already be pulled, e.g. "all-minilm"
	Dimensions int    // expected output size, 0 to skip the check
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Embedder implements domain.Embedder and domain.BatchEmbedder. No API key required.
type Embedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	logger     *zap.Logger
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		baseURL:    baseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float64 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single /api/embed call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	res, errType, err := e.embed(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("ollama", e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues("ollama", e.model, errType).Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("ollama embed: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("ollama", e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues("ollama", e.model).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("ollama", e.model, "total").Add(float64(res.TotalTokens))
	}

	e.logger.Debug("Ollama embeddings created",
		zap.String("model", e.model),
		zap.Int("inputs", len(texts)),
		zap.Duration("duration", duration),
	)
	return res, nil
}

// embed performs the request. errType labels the failure for metrics.
func (e *Embedder) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, string, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return domain.BatchEmbeddingResult{}, "marshal", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return domain.BatchEmbeddingResult{}, "request", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.BatchEmbeddingResult{}, "http", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return domain.BatchEmbeddingResult{}, "api_error", fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.BatchEmbeddingResult{}, "decode", fmt.Errorf("decode: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return domain.BatchEmbeddingResult{}, "empty_response",
			fmt.Errorf("got %d embeddings for %d inputs", len(out.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(out.Embeddings))
	for i, raw := range out.Embeddings {
		if len(raw) == 0 {
			return domain.BatchEmbeddingResult{}, "empty_response", fmt.Errorf("empty embedding at %d", i)
		}
		if e.dimensions > 0 && len(raw) != e.dimensions {
			return domain.BatchEmbeddingResult{}, "dimension_mismatch",
				fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(raw), e.dimensions)
		}
		v := make([]float32, len(raw))
		for j, f := range raw {
			v[j] = float32(f)
		}
		vecs[i] = v
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   vecs,
		PromptTokens: out.PromptEvalCount,
		TotalTokens:  out.PromptEvalCount,
	}, "", nil
}

// HealthCheck verifies the server answers and the model is pulled.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama tags: status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == e.model || strings.TrimSuffix(m.Name, ":latest") == e.model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not pulled", e.model)
}
