package poliscope

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/poliscope/poliscope"
	"github.com/poliscope/poliscope/pkg/checkpoint"
	"github.com/poliscope/poliscope/pkg/config"
	"github.com/poliscope/poliscope/pkg/crossencoder"
	"github.com/poliscope/poliscope/pkg/embedder"
	poliscopeLogger "github.com/poliscope/poliscope/pkg/logger"
	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/rerank"
	"github.com/poliscope/poliscope/pkg/retriever"
	"github.com/poliscope/poliscope/pkg/store"
	"github.com/poliscope/poliscope/pkg/types"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return poliscopeLogger.NewDefaultLogger(level)
}

// buildEngine wires the full retrieval pipeline from configuration: an
// OpenAI-compatible embedder, an LLM client wrapped with retries and an
// optional circuit breaker, the in-memory chunk store, and the snapshot
// store when a checkpoint path is configured.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*poliscope.Client, error) {
	if cfg.Embedding.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required (set OPENAI_API_KEY or embedding.api_key)")
	}

	embedderClient := embedder.NewOpenAIClient(embedder.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})

	var llmClient nlp.Client
	if cfg.LLM.APIKey != "" {
		base := nlp.NewOpenAIClient(nlp.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		retryConfig := nlp.DefaultRetryConfig()
		retryConfig.MaxRetries = cfg.LLM.MaxRetries
		llmClient = nlp.NewRetryClient(base, retryConfig)
		if cfg.CircuitBreaker.Enabled {
			llmClient = nlp.NewCircuitBreakerClient(llmClient, nlp.BreakerConfig{
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
				Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, logger)
		}
	} else {
		logger.Warn("no LLM API key configured, summaries and LLM reranking disabled")
	}

	// Cosine-similarity cross-encoder; no extra LLM traffic on the
	// reranking hot path.
	crossClient := crossencoder.NewEmbeddingClient(embedderClient)

	var snapshots *checkpoint.Store
	if cfg.Checkpoint.Path != "" {
		var err error
		snapshots, err = checkpoint.Open(cfg.Checkpoint.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
	}

	engineConfig := &poliscope.Config{
		Retriever: retriever.Config{
			VariantCap:     cfg.Retrieval.VariantCap,
			MaxExpansions:  cfg.Retrieval.MaxExpansions,
			FanOut:         cfg.Retrieval.FanOut,
			SearchTimeout:  time.Duration(cfg.Retrieval.SearchTimeout) * time.Second,
			RRFK:           cfg.Retrieval.RRFK,
			RRFWeight:      cfg.Retrieval.RRFWeight,
			OriginalWeight: cfg.Retrieval.OriginalWeight,
			IntentWeight:   cfg.Retrieval.IntentWeight,
			IntentBoostCap: cfg.Retrieval.IntentBoostCap,
		},
		Rerank: rerank.Config{
			BatchSize:     cfg.Rerank.BatchSize,
			SnippetLength: cfg.Rerank.SnippetLength,
		},
		DefaultRerank: types.RerankMethod(cfg.Rerank.Method),
		LLMTimeout:    time.Duration(cfg.LLM.Timeout) * time.Second,
		Snapshots:     snapshots,
	}
	engineConfig.Hierarchy.Builder.SummaryLength = cfg.Hierarchy.SummaryLength
	engineConfig.Hierarchy.Builder.MaxChunkSize = cfg.Hierarchy.MaxChunkSize
	engineConfig.Hierarchy.Builder.ChunkOverlap = cfg.Hierarchy.ChunkOverlap
	engineConfig.Hierarchy.BM25Weight = cfg.Hierarchy.BM25Weight
	engineConfig.Hierarchy.TFIDFWeight = cfg.Hierarchy.TFIDFWeight

	client, err := poliscope.NewClient(
		embedderClient,
		store.NewMemoryStore(embedderClient),
		llmClient,
		crossClient,
		engineConfig,
		logger,
	)
	if err != nil {
		if snapshots != nil {
			snapshots.Close()
		}
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return client, nil
}
