// Package config loads application configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Retrieval configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// Rerank configuration
	Rerank RerankConfig `mapstructure:"rerank"`

	// Hierarchy index configuration
	Hierarchy HierarchyConfig `mapstructure:"hierarchy"`

	// Checkpoint configuration
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// LLMConfig holds chat model configuration
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // in seconds
	MaxRetries  int     `mapstructure:"max_retries"`
}

// RetrievalConfig holds hybrid retrieval tuning
type RetrievalConfig struct {
	FanOut        int `mapstructure:"fan_out"`
	VariantCap    int `mapstructure:"variant_cap"`
	MaxExpansions int `mapstructure:"max_expansions"`
	SearchTimeout int `mapstructure:"search_timeout"` // in seconds

	RRFK           int     `mapstructure:"rrf_k"`
	RRFWeight      float64 `mapstructure:"rrf_weight"`
	OriginalWeight float64 `mapstructure:"original_weight"`
	IntentWeight   float64 `mapstructure:"intent_weight"`
	IntentBoostCap float64 `mapstructure:"intent_boost_cap"`
}

// RerankConfig holds reranking engine tuning
type RerankConfig struct {
	Method        string `mapstructure:"method"` // auto, rule_based, cross_encoder, llm, multi_stage
	BatchSize     int    `mapstructure:"batch_size"`
	SnippetLength int    `mapstructure:"snippet_length"`
}

// HierarchyConfig holds index construction tuning
type HierarchyConfig struct {
	SummaryLength int     `mapstructure:"summary_length"`
	MaxChunkSize  int     `mapstructure:"max_chunk_size"`
	ChunkOverlap  int     `mapstructure:"chunk_overlap"`
	BM25Weight    float64 `mapstructure:"bm25_weight"`
	TFIDFWeight   float64 `mapstructure:"tfidf_weight"`
}

// CheckpointConfig holds snapshot store configuration
type CheckpointConfig struct {
	Path   string `mapstructure:"path"`
	MaxAge int    `mapstructure:"max_age"` // in hours, 0 disables cleanup
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Embedding defaults
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.batch_size", 100)

	// LLM defaults
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.timeout", 60)
	viper.SetDefault("llm.max_retries", 3)

	// Retrieval defaults
	viper.SetDefault("retrieval.fan_out", 8)
	viper.SetDefault("retrieval.variant_cap", 8)
	viper.SetDefault("retrieval.max_expansions", 5)
	viper.SetDefault("retrieval.search_timeout", 5)
	viper.SetDefault("retrieval.rrf_k", 60)
	viper.SetDefault("retrieval.rrf_weight", 0.5)
	viper.SetDefault("retrieval.original_weight", 0.3)
	viper.SetDefault("retrieval.intent_weight", 0.2)
	viper.SetDefault("retrieval.intent_boost_cap", 0.5)

	// Rerank defaults
	viper.SetDefault("rerank.method", "auto")
	viper.SetDefault("rerank.batch_size", 10)
	viper.SetDefault("rerank.snippet_length", 200)

	// Hierarchy defaults
	viper.SetDefault("hierarchy.summary_length", 500)
	viper.SetDefault("hierarchy.max_chunk_size", 800)
	viper.SetDefault("hierarchy.chunk_overlap", 100)
	viper.SetDefault("hierarchy.bm25_weight", 0.6)
	viper.SetDefault("hierarchy.tfidf_weight", 0.4)

	// Checkpoint defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("checkpoint.path", filepath.Join(home, ".poliscope", "snapshots"))
	}
	viper.SetDefault("checkpoint.max_age", 0)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 2)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		if config.Embedding.BaseURL == "" {
			config.Embedding.BaseURL = baseURL
		}
		if config.LLM.BaseURL == "" {
			config.LLM.BaseURL = baseURL
		}
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Snapshot store path
	if path := os.Getenv("POLISCOPE_SNAPSHOT_PATH"); path != "" {
		config.Checkpoint.Path = path
	}
}
