package keypoints

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/app"
	"github.com/kailas-cloud/keypoints/internal/config"
	"github.com/kailas-cloud/keypoints/internal/domain"
	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	embeddinguc "github.com/kailas-cloud/keypoints/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/keypoints/internal/usecase/health"
	usageuc "github.com/kailas-cloud/keypoints/internal/usecase/usage"
)

const providerCustom = "custom"

// Internal interfaces for substitution in tests.
type extractionUseCase interface {
	ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error)
}

// Client is the keypoints SDK entry point. It is safe for concurrent use.
type Client struct {
	extractor extractionUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
	now       func() time.Time
}

// New creates a Client. Without an embedding option the client can still
// draft BRDs, but ExtractKeyPoints fails with ErrEmbeddingUnavailable.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{seed: app.DefaultExtractionOptions().Seed}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(cfg, obs)
}

func wireClient(cfg *clientConfig, obs *observer) (*Client, error) {
	// Internals log through zap; SDK callers get slog via the observer.
	logger := zap.NewNop()

	// Pass nil interfaces (not typed nil pointers) when no limit is set.
	var (
		quotaChecker embeddinguc.QuotaChecker
		budget       usageuc.BudgetReader
	)
	provider := cfg.provider
	if cfg.embedder != nil {
		provider = providerCustom
	}
	if cfg.dailyTokenLimit > 0 {
		quota := embeddinguc.NewQuota(provider, cfg.dailyTokenLimit, embeddinguc.QuotaActionReject, logger)
		quotaChecker = quota
		budget = quota
	}

	embedder, err := buildEmbedder(cfg, quotaChecker, logger)
	if err != nil {
		return nil, err
	}

	extractor := app.NewExtractor(embedder, app.ExtractionOptions{
		Seed:        cfg.seed,
		Restarts:    cfg.restarts,
		MinClusters: cfg.minClusters,
		MaxClusters: cfg.maxClusters,
	}, logger)

	var checker healthuc.EmbeddingChecker
	if hc, ok := embedder.(healthuc.EmbeddingChecker); ok {
		checker = hc
	}

	return &Client{
		extractor: extractor,
		healthSvc: healthuc.New(nil, checker, logger),
		usageSvc:  usageuc.New(provider, budget),
		obs:       obs,
		now:       time.Now,
	}, nil
}

func buildEmbedder(cfg *clientConfig, quota embeddinguc.QuotaChecker, logger *zap.Logger) (domain.Embedder, error) {
	switch {
	case cfg.embedder != nil:
		return embeddinguc.NewInstrumentedEmbedder(
			adaptEmbedder(cfg.embedder), providerCustom, cfg.model, quota, logger,
		), nil
	case cfg.provider == "":
		return &noopEmbedder{}, nil
	}

	opts := &app.EmbedderOptions{
		Provider:   cfg.provider,
		Model:      cfg.model,
		Dimensions: cfg.dimensions,
		BaseURL:    cfg.baseURL,
		APIKey:     cfg.apiKey,
		Timeout:    cfg.timeout,
		Quota:      quota,
		Logger:     logger,
	}
	switch cfg.provider {
	case app.ProviderOllama:
		if opts.BaseURL == "" {
			opts.BaseURL = config.DefaultOllamaBaseURL
		}
		if opts.Model == "" {
			opts.Model = config.DefaultOllamaModel
		}
	case app.ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("keypoints: openai requires an API key: %w", domain.ErrValidation)
		}
		if opts.Model == "" {
			opts.Model = config.DefaultOpenAIModel
		}
	}

	e, err := app.BuildEmbedder(opts)
	if err != nil {
		return nil, fmt.Errorf("keypoints: %w", err)
	}
	return e, nil
}

// ExtractKeyPoints returns the key points of text in order of first appearance.
func (c *Client) ExtractKeyPoints(ctx context.Context, text string) ([]KeyPoint, error) {
	res, err := c.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.KeyPoints, nil
}

// Extract is ExtractKeyPoints that also reports embedding usage.
func (c *Client) Extract(ctx context.Context, text string) (_ Extraction, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() {
		c.obs.observe("extract", start, err,
			"embedding_calls", usage.Calls, "tokens", usage.TotalTokens)
	}()

	points, err := c.extractor.ExtractKeyPoints(ctx, text)
	if err != nil {
		return Extraction{}, fmt.Errorf("extract key points: %w", err)
	}

	out := make([]KeyPoint, len(points))
	for i := range points {
		out[i] = keyPointFromDomain(&points[i])
	}
	c.obs.extracted(len(out), usage.TotalTokens)

	return Extraction{
		KeyPoints:      out,
		EmbeddingCalls: usage.Calls,
		TotalTokens:    usage.TotalTokens,
	}, nil
}

// DraftBRD renders a Markdown business requirements document from selected
// key point texts. Fails with ErrValidation on an empty or blank selection.
func (c *Client) DraftBRD(selected []string) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("draft_brd", start, err, "points", len(selected)) }()

	if err = dombrd.ValidateSelection(selected); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return dombrd.Compose(selected, c.now()), nil
}

func keyPointFromDomain(k *keypoint.KeyPoint) KeyPoint {
	return KeyPoint{
		Text:          k.Text(),
		ClusterID:     k.ClusterID(),
		Embedding:     k.Embedding(),
		SimilarPoints: k.SimilarPoints(),
		SourceOffset:  k.SourceOffset(),
	}
}
