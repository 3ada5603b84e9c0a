// Package app assembles the embedder chain and the extraction pipeline shared
// by the server, the CLI and the MCP server.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/db"
	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/metrics"
	"github.com/kailas-cloud/keypoints/internal/repository/embcache"
	ollamaEmb "github.com/kailas-cloud/keypoints/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/keypoints/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/keypoints/internal/usecase/embedding"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// EmbedderOptions selects and tunes the embedding provider.
type EmbedderOptions struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Serialize  bool

	// Cache is optional; nil disables the embedding cache.
	Cache     db.KVStore
	CacheTTL  time.Duration
	KeyPrefix string

	// Quota is optional; nil disables quota enforcement.
	Quota embeddinguc.QuotaChecker

	Logger *zap.Logger
}

// NewProvider creates the bare provider transport.
func NewProvider(opts *EmbedderOptions) (domain.Embedder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Provider {
	case ProviderOllama:
		return ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			Timeout:    opts.Timeout,
			Logger:     logger,
		}), nil
	case ProviderOpenAI:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			Provider:   ProviderOpenAI,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}

// BuildEmbedder assembles the decorator chain:
// provider -> Cached -> Instrumented -> Serialized.
func BuildEmbedder(opts *EmbedderOptions) (domain.Embedder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := NewProvider(opts)
	if err != nil {
		return nil, err
	}

	var embedder domain.Embedder = base
	if opts.Cache != nil {
		embedder = embcache.New(base, opts.Cache, embcache.Options{
			KeyPrefix:  opts.KeyPrefix,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			TTL:        opts.CacheTTL,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, opts.Provider, opts.Model, opts.Quota, logger)

	if opts.Serialize {
		embedder = embeddinguc.NewSerializedEmbedder(embedder)
	}
	return embedder, nil
}
