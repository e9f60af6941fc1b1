// Package config loads the inkwell API configuration from env-keyed YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the inkwell API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Cache      CacheConfig      `yaml:"cache"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Auth       AuthConfig       `yaml:"auth"`
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
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"` // bounded LRU entries
	MaxChars   int    `yaml:"max_chars"`  // input truncation budget
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	MaxHistoryTurns int    `yaml:"max_history_turns"` // conversation turns kept in the prompt
	MessageCapChars int    `yaml:"message_cap_chars"` // per-message content cap
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Capacity   int `yaml:"capacity"`
	BaseTTLSec int `yaml:"base_ttl_sec"`
	MaxTTLSec  int `yaml:"max_ttl_sec"`
}

// RetrievalConfig holds search orchestration settings.
type RetrievalConfig struct {
	IndexName            string  `yaml:"index_name"`
	DefaultLimit         int     `yaml:"default_limit"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold"`  // ordinary lookups
	AnalyticalThreshold  float64 `yaml:"analytical_threshold"`  // comprehensive/analytical queries
	SubQuestionBatchSize int     `yaml:"subquestion_batch_size"`
	RequestTimeoutSec    int     `yaml:"request_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 1000
	}
	if c.Embedding.MaxChars <= 0 {
		c.Embedding.MaxChars = 8000
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Completion.MaxHistoryTurns <= 0 {
		c.Completion.MaxHistoryTurns = 6
	}
	if c.Completion.MessageCapChars <= 0 {
		c.Completion.MessageCapChars = 500
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = 500
	}
	if c.Cache.BaseTTLSec <= 0 {
		c.Cache.BaseTTLSec = 300
	}
	if c.Cache.MaxTTLSec <= 0 {
		c.Cache.MaxTTLSec = 1800
	}
	if c.Retrieval.IndexName == "" {
		c.Retrieval.IndexName = "inkwell:entries:idx"
	}
	if c.Retrieval.DefaultLimit <= 0 {
		c.Retrieval.DefaultLimit = 10
	}
	if c.Retrieval.SimilarityThreshold <= 0 {
		c.Retrieval.SimilarityThreshold = 0.3
	}
	if c.Retrieval.AnalyticalThreshold <= 0 {
		c.Retrieval.AnalyticalThreshold = 0.1
	}
	if c.Retrieval.SubQuestionBatchSize <= 0 {
		c.Retrieval.SubQuestionBatchSize = 3
	}
	if c.Retrieval.RequestTimeoutSec <= 0 {
		c.Retrieval.RequestTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Cache.MaxTTLSec < c.Cache.BaseTTLSec {
		return fmt.Errorf("cache.max_ttl_sec (%d) must be >= cache.base_ttl_sec (%d)",
			c.Cache.MaxTTLSec, c.Cache.BaseTTLSec)
	}
	if t := c.Retrieval.SimilarityThreshold; t > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be <= 1, got %g", t)
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
