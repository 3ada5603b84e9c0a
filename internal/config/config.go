package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the keypoints service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout and retention settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"` // 0 = keep forever
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"` // openai, ollama
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	BaseURL    string      `yaml:"base_url"`
	APIKey     string      `yaml:"api_key"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Serialize  bool        `yaml:"serialize"` // one provider call at a time
	Cache      CacheConfig `yaml:"cache"`
	Quota      QuotaConfig `yaml:"quota"`
}

// TTL returns the record retention, or 0 to keep records forever.
func (s StorageConfig) TTL() time.Duration { return time.Duration(s.TTLHours) * time.Hour }

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"` // 0 = keep forever
}

// TTL returns the cache entry lifetime, or 0 for no expiry.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// QuotaConfig holds the daily token quota.
type QuotaConfig struct {
	DailyTokenLimit int64  `yaml:"daily_token_limit"` // 0 = unlimited
	Action          string `yaml:"action"`            // "reject" | "warn" (default)
}

// ExtractionConfig holds clustering settings of the key-point pipeline.
type ExtractionConfig struct {
	Seed          *int64 `yaml:"seed"`
	MaxIterations int    `yaml:"max_iterations"`
	Restarts      int    `yaml:"restarts"`
	MinClusters   int    `yaml:"min_clusters"`
	MaxClusters   int    `yaml:"max_clusters"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, then applies
// defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default embedding settings per provider.
const (
	DefaultOllamaBaseURL    = "http://localhost:11434"
	DefaultOllamaModel      = "all-minilm"
	DefaultOllamaDimensions = 384
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultMaxBodyBytes     = 100 << 20
	DefaultSeed             = 42
)

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	c.Embedding.applyDefaults()
	if c.Extraction.Seed == nil {
		seed := int64(DefaultSeed)
		c.Extraction.Seed = &seed
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "keypoints:"
	}
}

func (e *EmbeddingConfig) applyDefaults() {
	if e.Provider == "" {
		e.Provider = "ollama"
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
	if e.Quota.Action == "" {
		e.Quota.Action = "warn"
	}
	switch e.Provider {
	case "ollama":
		if e.BaseURL == "" {
			e.BaseURL = DefaultOllamaBaseURL
		}
		if e.Model == "" {
			e.Model = DefaultOllamaModel
			if e.Dimensions == 0 {
				e.Dimensions = DefaultOllamaDimensions
			}
		}
	case "openai":
		if e.Model == "" {
			e.Model = DefaultOpenAIModel
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if err := c.Embedding.validate(); err != nil {
		return err
	}
	x := c.Extraction
	if x.MinClusters < 0 || x.MaxClusters < 0 || x.MaxIterations < 0 || x.Restarts < 0 {
		return fmt.Errorf("extraction settings must not be negative")
	}
	if x.MinClusters > 0 && x.MaxClusters > 0 && x.MinClusters > x.MaxClusters {
		return fmt.Errorf(
			"extraction.min_clusters (%d) must not exceed extraction.max_clusters (%d)",
			x.MinClusters, x.MaxClusters,
		)
	}
	if c.Storage.TTLHours < 0 {
		return fmt.Errorf("storage.ttl_hours must not be negative")
	}
	return nil
}

func (e *EmbeddingConfig) validate() error {
	switch e.Provider {
	case "ollama":
	case "openai":
		if e.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider \"openai\"")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"ollama\", got %q", e.Provider)
	}
	if e.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", e.Dimensions)
	}
	switch e.Quota.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf(
			"embedding.quota.action must be \"warn\" or \"reject\", got %q", e.Quota.Action,
		)
	}
	if e.Quota.DailyTokenLimit < 0 {
		return fmt.Errorf("embedding.quota.daily_token_limit must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
