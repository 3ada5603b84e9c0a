package keypoints

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	provider   string // "ollama" or "openai"
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	timeout    time.Duration

	embedder Embedder

	seed        int64
	restarts    int
	minClusters int
	maxClusters int

	dailyTokenLimit int64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOllama embeds through a local Ollama server.
func WithOllama(baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "ollama"
		c.baseURL = baseURL
		c.model = model
	})
}

// WithOpenAI embeds through the OpenAI API or a compatible endpoint.
// Set the endpoint with WithBaseURL.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "openai"
		c.apiKey = apiKey
		c.model = model
	})
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithEmbedder sets a custom text embedding provider.
// It takes precedence over WithOllama and WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithDimensions sets the expected vector dimension. Defaults to the model's own.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithTimeout bounds a single provider request.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithSeed fixes the k-means seed. Default: 42.
func WithSeed(seed int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.seed = seed
	})
}

// WithRestarts sets how many k-means++ initializations are tried.
func WithRestarts(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.restarts = n
	})
}

// WithClusterBounds bounds the number of key points per text.
// Default: 3 to 15, capped at the number of units.
func WithClusterBounds(lo, hi int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minClusters = lo
		c.maxClusters = hi
	})
}

// WithDailyTokenLimit rejects embedding calls once limit tokens were used
// in the current UTC day. Zero (default) means unlimited.
func WithDailyTokenLimit(limit int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokenLimit = limit
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
