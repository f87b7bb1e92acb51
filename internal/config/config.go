package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecrank/internal/domain"
)

// Config holds the vecrank service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Scorer    ScorerConfig    `yaml:"scorer"`
	Cache     CacheConfig     `yaml:"cache"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// EncoderConfig holds chunked encoder settings.
type EncoderConfig struct {
	MaxWindowTokens int `yaml:"max_window_tokens"`
	// Stride is a pointer because 0 (no overlap) is a valid explicit value.
	Stride          *int `yaml:"stride"`
	PadID           int  `yaml:"pad_id"`
	SummaryPosition int  `yaml:"summary_position"`
}

// TokenizerConfig holds tokenizer settings.
type TokenizerConfig struct {
	Encoding string `yaml:"encoding"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // metrics label
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	User       string `yaml:"user"`
}

// ScorerConfig holds scoring model settings.
type ScorerConfig struct {
	ModelPath string `yaml:"model_path"`
}

// CacheConfig holds embedding cache settings. The cache is disabled when
// no addresses are configured.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Standalone       bool     `yaml:"standalone"` // skip cluster discovery
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
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

// Parse decodes YAML with ${VAR} substitution, then applies defaults and validates.
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

// LoadDotEnv exports variables from a .env file so ${VAR} references in the
// YAML config can resolve them. Variables already set in the process win.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}

	enc := domain.DefaultEncoderConfig()
	if c.Encoder.MaxWindowTokens <= 0 {
		c.Encoder.MaxWindowTokens = enc.MaxWindowTokens
	}
	if c.Encoder.Stride == nil {
		stride := enc.Stride
		c.Encoder.Stride = &stride
	}

	if c.Tokenizer.Encoding == "" {
		c.Tokenizer.Encoding = "cl100k_base"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = enc.Dimensions
	}

	if c.Scorer.ModelPath == "" {
		c.Scorer.ModelPath = "models/ranker.yaml"
	}

	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "vecrank:emb_cache:"
	}

	if c.Tracing.Enabled && c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}

	if c.Encoder.MaxWindowTokens < 1 {
		return fmt.Errorf("encoder.max_window_tokens must be >= 1, got %d", c.Encoder.MaxWindowTokens)
	}
	if c.Encoder.Stride != nil {
		if s := *c.Encoder.Stride; s < 0 || s >= c.Encoder.MaxWindowTokens {
			return fmt.Errorf("encoder.stride must be in [0, %d), got %d", c.Encoder.MaxWindowTokens, s)
		}
	}
	if p := c.Encoder.SummaryPosition; p < 0 || p >= c.Encoder.MaxWindowTokens {
		return fmt.Errorf("encoder.summary_position must be in [0, %d), got %d", c.Encoder.MaxWindowTokens, p)
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be >= 0, got %d", c.Embedding.Dimensions)
	}

	if c.Scorer.ModelPath == "" {
		return fmt.Errorf("scorer.model_path is required")
	}

	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must be >= 0, got %d", c.Cache.TTLSec)
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing.sampling_rate must be between 0 and 1, got %v", c.Tracing.SamplingRate)
	}
	return nil
}

// EncoderSettings converts the encoder and embedding sections into the
// encoder's domain config.
func (c *Config) EncoderSettings() domain.EncoderConfig {
	cfg := domain.DefaultEncoderConfig()
	cfg.MaxWindowTokens = c.Encoder.MaxWindowTokens
	if c.Encoder.Stride != nil {
		cfg.Stride = *c.Encoder.Stride
	}
	cfg.PadID = c.Encoder.PadID
	cfg.SummaryPosition = c.Encoder.SummaryPosition
	cfg.Dimensions = c.Embedding.Dimensions
	return cfg
}

// CacheEnabled reports whether an embedding cache store is configured.
func (c *Config) CacheEnabled() bool {
	return len(c.Cache.Addrs) > 0
}

// CacheTTL returns the cache entry lifetime, 0 for no expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
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
