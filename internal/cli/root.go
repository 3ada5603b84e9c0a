// Package cli implements the keypoints command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/app"
	"github.com/kailas-cloud/keypoints/internal/config"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
	logpkg "github.com/kailas-cloud/keypoints/internal/logger"
)

// Extractor runs the key-point pipeline.
type Extractor interface {
	ExtractKeyPoints(ctx context.Context, text string) ([]keypoint.KeyPoint, error)
}

// options are the persistent flags shared by all subcommands.
type options struct {
	provider   string
	model      string
	baseURL    string
	apiKey     string
	dimensions int
	seed       int64
	restarts   int
	timeout    time.Duration
	logLevel   string
}

var opts options

// newExtractor builds the pipeline from flags. Tests replace it.
var newExtractor = func(o *options, logger *zap.Logger) (Extractor, error) {
	emb, err := app.BuildEmbedder(&app.EmbedderOptions{
		Provider:   o.provider,
		Model:      o.model,
		Dimensions: o.dimensions,
		BaseURL:    o.baseURL,
		APIKey:     o.apiKey,
		Timeout:    o.timeout,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return app.NewExtractor(emb, app.ExtractionOptions{Seed: o.seed, Restarts: o.restarts}, logger), nil
}

var rootCmd = &cobra.Command{
	Use:   "keypoints",
	Short: "Extract key points from meeting transcripts",
	Long: `keypoints segments a transcript into sentences, embeds them, clusters the
embeddings and returns one representative sentence per cluster, in source order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.provider, "provider", envOr("KEYPOINTS_PROVIDER", app.ProviderOllama),
		"embedding provider: ollama or openai")
	pf.StringVar(&opts.model, "model", os.Getenv("KEYPOINTS_MODEL"),
		"embedding model (default all-minilm for ollama, text-embedding-3-small for openai)")
	pf.StringVar(&opts.baseURL, "base-url", os.Getenv("KEYPOINTS_BASE_URL"), "provider base URL")
	pf.StringVar(&opts.apiKey, "api-key", envOr("KEYPOINTS_API_KEY", os.Getenv("OPENAI_API_KEY")),
		"provider API key (openai)")
	pf.IntVar(&opts.dimensions, "dimensions", 0, "expected embedding dimensions (0 = provider default)")
	pf.Int64Var(&opts.seed, "seed", app.DefaultExtractionOptions().Seed, "clustering seed")
	pf.IntVar(&opts.restarts, "restarts", 1, "k-means restarts; the lowest inertia wins")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "provider request timeout")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
}

// Execute runs the root command with args and returns the process exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// setup resolves provider defaults and builds the extractor for a subcommand.
func setup(cmd *cobra.Command) (Extractor, *zap.Logger, error) {
	logger, err := logpkg.NewLogger("cli", opts.logLevel)
	if err != nil {
		return nil, nil, err
	}

	o := opts
	switch o.provider {
	case app.ProviderOllama:
		if o.model == "" {
			o.model = config.DefaultOllamaModel
		}
	case app.ProviderOpenAI:
		if o.model == "" {
			o.model = config.DefaultOpenAIModel
		}
		if o.apiKey == "" {
			return nil, nil, fmt.Errorf("--api-key or OPENAI_API_KEY is required for provider %q", o.provider)
		}
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (want ollama or openai)", o.provider)
	}

	ext, err := newExtractor(&o, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("extractor ready",
		zap.String("command", cmd.Name()),
		zap.String("provider", o.provider),
		zap.String("model", o.model),
	)
	return ext, logger, nil
}

// readInput returns the contents of the file named by args[0], or stdin when
// no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
