package retriever

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/store"
	"github.com/poliscope/poliscope/pkg/types"
)

// Config tunes the hybrid retriever.
type Config struct {
	// VariantCap limits generated query variants (default 8).
	VariantCap int
	// MaxExpansions limits similarity-based expansions (default 5).
	MaxExpansions int
	// FanOut bounds concurrent backend calls (default 8).
	FanOut int
	// SearchTimeout applies per dense/keyword call (default 5s).
	SearchTimeout time.Duration

	// RRFK is the reciprocal rank fusion constant (default 60).
	RRFK int
	// Fusion blend: final = RRFWeight·rrf + OriginalWeight·original +
	// IntentWeight·intentBoost.
	RRFWeight      float64
	OriginalWeight float64
	IntentWeight   float64
	// IntentBoostCap caps the raw intent boost (default 0.5).
	IntentBoostCap float64
}

// DefaultConfig returns the standard retriever settings.
func DefaultConfig() Config {
	return Config{
		VariantCap:     8,
		MaxExpansions:  5,
		FanOut:         8,
		SearchTimeout:  5 * time.Second,
		RRFK:           60,
		RRFWeight:      0.5,
		OriginalWeight: 0.3,
		IntentWeight:   0.2,
		IntentBoostCap: 0.5,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.VariantCap <= 0 {
		c.VariantCap = def.VariantCap
	}
	if c.MaxExpansions <= 0 {
		c.MaxExpansions = def.MaxExpansions
	}
	if c.FanOut <= 0 {
		c.FanOut = def.FanOut
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = def.SearchTimeout
	}
	if c.RRFK <= 0 {
		c.RRFK = def.RRFK
	}
	// The blend weights default as a group so a deliberate zero weight
	// alongside configured ones survives.
	if c.RRFWeight == 0 && c.OriginalWeight == 0 && c.IntentWeight == 0 {
		c.RRFWeight = def.RRFWeight
		c.OriginalWeight = def.OriginalWeight
		c.IntentWeight = def.IntentWeight
	}
	if c.IntentBoostCap <= 0 {
		c.IntentBoostCap = def.IntentBoostCap
	}
}

// Retriever runs hybrid dense+keyword retrieval over query variants.
type Retriever struct {
	embedder embedder.Client
	vectors  store.VectorStore
	keywords store.KeywordStore
	pool     *ants.Pool
	config   Config
	logger   *slog.Logger
}

// New creates a Retriever. The worker pool is sized to the configured
// fan-out; call Close to release it.
func New(embedderClient embedder.Client, vectors store.VectorStore, keywords store.KeywordStore, config Config, logger *slog.Logger) (*Retriever, error) {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(config.FanOut)
	if err != nil {
		return nil, err
	}
	return &Retriever{
		embedder: embedderClient,
		vectors:  vectors,
		keywords: keywords,
		pool:     pool,
		config:   config,
		logger:   logger,
	}, nil
}

// Close releases the worker pool.
func (r *Retriever) Close() {
	r.pool.Release()
}

// MergeFilters overlays explicit caller filters on inferred smart
// filters; explicit values win field by field.
func MergeFilters(smart, explicit types.Filters) types.Filters {
	merged := smart
	if len(explicit.Industries) > 0 {
		merged.Industries = explicit.Industries
	}
	if len(explicit.Scales) > 0 {
		merged.Scales = explicit.Scales
	}
	if len(explicit.PolicyTypes) > 0 {
		merged.PolicyTypes = explicit.PolicyTypes
	}
	if explicit.Region != "" {
		merged.Region = explicit.Region
	}
	if explicit.PreferStartupFriendly {
		merged.PreferStartupFriendly = true
	}
	if explicit.ExcludeHighBarrier {
		merged.ExcludeHighBarrier = true
	}
	return merged
}

// channelResults accumulates per-channel hits under a lock, keeping the
// maximum weighted score per chunk.
type channelResults struct {
	mu     sync.Mutex
	scores map[string]float64
	order  []string
	failed int
}

func newChannelResults() *channelResults {
	return &channelResults{scores: make(map[string]float64)}
}

func (c *channelResults) add(chunkID string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, seen := c.scores[chunkID]
	if !seen {
		c.order = append(c.order, chunkID)
	}
	if !seen || score > prev {
		c.scores[chunkID] = score
	}
}

func (c *channelResults) fail() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

func (c *channelResults) failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// ErrAllChannelsFailed reports that every dense and keyword call in a
// Retrieve failed, so there was nothing to fuse.
var ErrAllChannelsFailed = errors.New("retriever: every retrieval channel failed")

// Retrieve runs dense and keyword searches for every variant, fuses the
// channels, and applies post-filtering. Individual call failures
// degrade that channel; the error is ErrAllChannelsFailed only when
// every launched call failed.
func (r *Retriever) Retrieve(ctx context.Context, understanding types.QueryUnderstanding, filters types.Filters, topK int) ([]types.RetrievalCandidate, error) {
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	if topK > types.MaxTopK {
		topK = types.MaxTopK
	}

	variants := r.GenerateQueryVariants(ctx, understanding)
	dense := newChannelResults()
	keyword := newChannelResults()

	var wg sync.WaitGroup
	submit := func(task func()) {
		wg.Add(1)
		wrapped := func() {
			defer wg.Done()
			task()
		}
		if err := r.pool.Submit(wrapped); err != nil {
			// Pool exhausted or released: run inline rather than drop.
			wrapped()
		}
	}

	launched := 0
	for i, variant := range variants {
		weight := 1.0 - 0.1*float64(i)
		if weight <= 0 {
			break
		}
		variant := variant
		launched += 2

		submit(func() {
			r.denseSearch(ctx, variant, weight, filters, topK, dense)
		})
		submit(func() {
			r.keywordSearch(ctx, variant, weight, filters, topK, keyword)
		})
	}
	wg.Wait()

	if failures := dense.failures() + keyword.failures(); launched > 0 && failures == launched {
		return nil, ErrAllChannelsFailed
	}

	fused := r.Fuse(r.collect(ctx, dense, types.SourceDense),
		r.collect(ctx, keyword, types.SourceKeyword), understanding)
	fused = r.PostFilter(fused, understanding.Entities)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

func (r *Retriever) denseSearch(ctx context.Context, variant string, weight float64, filters types.Filters, topK int, out *channelResults) {
	callCtx, cancel := context.WithTimeout(ctx, r.config.SearchTimeout)
	defer cancel()

	vector, err := r.embedder.EmbedSingle(callCtx, variant)
	if err != nil {
		r.logger.Warn("dense channel: embed failed", "variant", variant, "error", err)
		out.fail()
		return
	}
	results, err := r.vectors.Search(callCtx, vector, topK, filters)
	if err != nil {
		r.logger.Warn("dense channel: search failed", "variant", variant, "error", err)
		out.fail()
		return
	}
	for _, res := range results {
		out.add(res.ChunkID, res.Score*weight)
	}
}

func (r *Retriever) keywordSearch(ctx context.Context, variant string, weight float64, filters types.Filters, topK int, out *channelResults) {
	callCtx, cancel := context.WithTimeout(ctx, r.config.SearchTimeout)
	defer cancel()

	results, err := r.keywords.Search(callCtx, variant, filters, topK)
	if err != nil {
		r.logger.Warn("keyword channel: search failed", "variant", variant, "error", err)
		out.fail()
		return
	}
	for _, res := range results {
		out.add(res.ChunkID, res.Score*weight)
	}
}

// collect materializes a channel's accumulated hits as candidates,
// sorted by score, resolving content from the vector store.
func (r *Retriever) collect(ctx context.Context, ch *channelResults, sourceTag string) []types.RetrievalCandidate {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	candidates := make([]types.RetrievalCandidate, 0, len(ch.order))
	for _, id := range ch.order {
		candidate := types.RetrievalCandidate{
			ChunkID:    id,
			Score:      clampUnit(ch.scores[id]),
			SourceTags: []string{sourceTag},
		}
		if chunk, err := r.vectors.Get(ctx, id); err == nil && chunk != nil {
			candidate.Content = chunk.Content
			candidate.PolicyID = chunk.PolicyID
		}
		candidates = append(candidates, candidate)
	}
	types.SortCandidates(candidates)
	return candidates
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
