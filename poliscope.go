package poliscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poliscope/poliscope/pkg/checkpoint"
	"github.com/poliscope/poliscope/pkg/crossencoder"
	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/hierarchy"
	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/query"
	"github.com/poliscope/poliscope/pkg/rerank"
	"github.com/poliscope/poliscope/pkg/retriever"
	"github.com/poliscope/poliscope/pkg/types"
)

// ErrNoIndex is returned by operations that need a built index.
var ErrNoIndex = errors.New("poliscope: no index built")

// ErrNoSnapshotStore is returned when snapshot operations run without a
// configured snapshot store.
var ErrNoSnapshotStore = errors.New("poliscope: no snapshot store configured")

// SearchRequest is one retrieval query.
type SearchRequest struct {
	Query string `json:"query"`

	// TopK bounds the result count; zero means the default of 10,
	// values above 50 are clamped.
	TopK int `json:"top_k,omitempty"`

	// Strategy selects the retrieval pipeline; empty means the
	// configured default.
	Strategy types.Strategy `json:"strategy,omitempty"`

	// RerankMethod overrides reranker auto-selection.
	RerankMethod types.RerankMethod `json:"rerank_method,omitempty"`

	// Filters are explicit caller filters, merged over the filters
	// inferred from the query. Explicit values win.
	Filters types.Filters `json:"filters,omitempty"`

	// ApplicantContext describes the asking enterprise (industry,
	// scale, region) and feeds the optimization narrative.
	ApplicantContext string `json:"applicant_context,omitempty"`

	// WithSummary asks for an LLM summary of the top results.
	WithSummary bool `json:"with_summary,omitempty"`
}

// Config holds configuration for the engine client.
type Config struct {
	// Retriever tunes the hybrid retrieval fan-out and fusion.
	Retriever retriever.Config
	// Rerank tunes the reranking engine.
	Rerank rerank.Config
	// Hierarchy tunes index construction and level weighting.
	Hierarchy hierarchy.Config

	// DefaultStrategy applies when a request names none. Defaults to
	// the full advanced pipeline.
	DefaultStrategy types.Strategy
	// DefaultRerank applies when a request names none. Defaults to
	// auto-selection.
	DefaultRerank types.RerankMethod

	// LLMTimeout bounds summary and optimization calls (default 60s).
	LLMTimeout time.Duration

	// Snapshots enables index persistence when non-nil.
	Snapshots *checkpoint.Store
}

func (c *Config) applyDefaults() {
	if c.DefaultStrategy == "" {
		c.DefaultStrategy = types.StrategyFullAdvanced
	}
	if c.DefaultRerank == "" {
		c.DefaultRerank = types.RerankAuto
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 60 * time.Second
	}
}

// Client is the main implementation of the Poliscope interface.
type Client struct {
	embedder  embedder.Client
	store     ChunkStore
	llm       nlp.Client
	queries   *query.Engine
	hierarchy *hierarchy.Manager
	retriever *retriever.Retriever
	rerank    *rerank.Engine
	snapshots *checkpoint.Store
	config    *Config
	logger    *slog.Logger
}

// NewClient creates an engine client. embedderClient and chunkStore are
// required. llmClient and crossClient are optional; without them the
// LLM reranker, summaries, and the cross-encoder stages degrade to
// their fallbacks.
func NewClient(embedderClient embedder.Client, chunkStore ChunkStore, llmClient nlp.Client, crossClient crossencoder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if embedderClient == nil {
		return nil, errors.New("poliscope: embedder client is required")
	}
	if chunkStore == nil {
		return nil, errors.New("poliscope: chunk store is required")
	}
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	ret, err := retriever.New(embedderClient, chunkStore, chunkStore.KeywordStore(), config.Retriever, logger)
	if err != nil {
		return nil, fmt.Errorf("poliscope: build retriever: %w", err)
	}

	return &Client{
		embedder:  embedderClient,
		store:     chunkStore,
		llm:       llmClient,
		queries:   query.NewEngine(),
		hierarchy: hierarchy.NewManager(config.Hierarchy, nil, logger),
		retriever: ret,
		rerank:    rerank.NewEngine(crossClient, llmClient, config.Rerank, logger),
		snapshots: config.Snapshots,
		config:    config,
		logger:    logger,
	}, nil
}

// Close releases the retrieval worker pool and the snapshot store.
func (c *Client) Close() error {
	c.retriever.Close()
	if c.snapshots != nil {
		return c.snapshots.Close()
	}
	return nil
}

// IndexChunks implements IndexAdmin. The hierarchical index is built
// first; the vector store then indexes the hierarchy's chunks so dense
// retrieval covers policy summaries, sections, and sentences alike.
func (c *Client) IndexChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return types.NewValidationError("no chunks to index")
	}

	c.hierarchy.BuildIndex(chunks)
	h := c.hierarchy.Export()
	if h == nil || len(h.Chunks) == 0 {
		return types.NewValidationError("no valid chunks survived hierarchy construction")
	}
	if err := c.store.Index(ctx, h.Chunks); err != nil {
		return fmt.Errorf("poliscope: index chunk store: %w", err)
	}

	c.logger.Info("corpus indexed", "input_chunks", len(chunks), "indexed_chunks", len(h.Chunks))
	return nil
}

// SaveSnapshot implements IndexAdmin.
func (c *Client) SaveSnapshot(ctx context.Context) error {
	if c.snapshots == nil {
		return ErrNoSnapshotStore
	}
	h := c.hierarchy.Export()
	if h == nil {
		return ErrNoIndex
	}
	return c.snapshots.Save(ctx, &checkpoint.Snapshot{Hierarchy: h})
}

// RestoreLatest implements IndexAdmin.
func (c *Client) RestoreLatest(ctx context.Context) error {
	if c.snapshots == nil {
		return ErrNoSnapshotStore
	}
	snap, err := c.snapshots.LoadLatest(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New("poliscope: no snapshot to restore")
	}

	c.hierarchy.Restore(snap.Hierarchy)
	if err := c.store.Index(ctx, snap.Hierarchy.Chunks); err != nil {
		return fmt.Errorf("poliscope: rebuild chunk store: %w", err)
	}
	return nil
}

// Ready implements IndexAdmin.
func (c *Client) Ready() bool {
	return c.hierarchy.Ready()
}

// Hierarchy exposes the hierarchical index manager for context lookups.
func (c *Client) Hierarchy() *hierarchy.Manager {
	return c.hierarchy
}

// Understand exposes query analysis without running retrieval.
func (c *Client) Understand(queryText string) (types.QueryUnderstanding, error) {
	return c.queries.Understand(queryText)
}
