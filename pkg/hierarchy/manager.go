package hierarchy

import (
	"log/slog"
	"sync/atomic"

	"github.com/poliscope/poliscope/pkg/sparse"
	"github.com/poliscope/poliscope/pkg/types"
)

// Per-level sparse merge: 0.6·BM25 + 0.4·TFIDF by default.
const (
	DefaultBM25Weight  = 0.6
	DefaultTFIDFWeight = 0.4
)

// Config tunes index construction and search blending.
type Config struct {
	Builder BuilderConfig

	BM25K1      float64
	BM25B       float64
	BM25Weight  float64
	TFIDFWeight float64

	// LevelWeights is the default multiplier per level when the caller
	// supplies none.
	LevelWeights map[types.ChunkLevel]float64
}

// DefaultConfig returns the standard weighting.
func DefaultConfig() Config {
	return Config{
		BM25K1:      sparse.DefaultK1,
		BM25B:       sparse.DefaultB,
		BM25Weight:  DefaultBM25Weight,
		TFIDFWeight: DefaultTFIDFWeight,
		LevelWeights: map[types.ChunkLevel]float64{
			types.LevelPolicy:   1.0,
			types.LevelSection:  0.8,
			types.LevelSentence: 0.6,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.BM25K1 <= 0 {
		c.BM25K1 = def.BM25K1
	}
	if c.BM25B <= 0 {
		c.BM25B = def.BM25B
	}
	// The merge weights default as a pair so a deliberate zero weight
	// alongside a configured one survives.
	if c.BM25Weight == 0 && c.TFIDFWeight == 0 {
		c.BM25Weight = def.BM25Weight
		c.TFIDFWeight = def.TFIDFWeight
	}
	if len(c.LevelWeights) == 0 {
		c.LevelWeights = def.LevelWeights
	}
}

type levelIndex struct {
	bm25  *sparse.BM25Index
	tfidf *sparse.TFIDFIndex
}

// snapshot is one immutable generation of the hierarchy and its indexes.
type snapshot struct {
	hierarchy *Hierarchy
	chunks    map[string]*types.Chunk
	levels    map[types.ChunkLevel]*levelIndex
}

// Manager owns the hierarchical index. Building constructs a new
// snapshot off to the side and publishes it with an atomic pointer swap;
// readers never lock.
type Manager struct {
	config    Config
	tokenizer sparse.Tokenizer
	logger    *slog.Logger

	snapshot atomic.Pointer[snapshot]
}

// NewManager creates a Manager. A nil tokenizer uses the sparse
// package's default; a nil logger uses slog.Default().
func NewManager(config Config, tokenizer sparse.Tokenizer, logger *slog.Logger) *Manager {
	config.applyDefaults()
	if tokenizer == nil {
		tokenizer = sparse.DefaultTokenizer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:    config,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// BuildIndex derives the hierarchy from flat chunks, builds the
// per-level sparse indexes, and atomically replaces the current
// snapshot.
func (m *Manager) BuildIndex(flat []types.Chunk) {
	h := BuildHierarchy(flat, m.config.Builder)
	m.publish(h)
	m.logger.Info("hierarchical index built",
		"policies", len(h.ByLevel[types.LevelPolicy]),
		"sections", len(h.ByLevel[types.LevelSection]),
		"sentences", len(h.ByLevel[types.LevelSentence]))
}

// Restore publishes an already-built hierarchy (e.g. loaded from a
// checkpoint), rebuilding only the sparse indexes.
func (m *Manager) Restore(h *Hierarchy) {
	h.rebuildViews()
	m.publish(h)
	m.logger.Info("hierarchical index restored", "chunks", len(h.Chunks))
}

func (m *Manager) publish(h *Hierarchy) {
	snap := &snapshot{
		hierarchy: h,
		chunks:    make(map[string]*types.Chunk, len(h.Chunks)),
		levels:    make(map[types.ChunkLevel]*levelIndex),
	}
	for i := range h.Chunks {
		snap.chunks[h.Chunks[i].ID] = &h.Chunks[i]
	}
	for level, chunks := range h.ByLevel {
		docs := make([]sparse.Document, len(chunks))
		for i, c := range chunks {
			docs[i] = sparse.Document{ID: c.ID, Content: c.Content}
		}
		snap.levels[level] = &levelIndex{
			bm25:  sparse.NewBM25Index(docs, m.tokenizer, m.config.BM25K1, m.config.BM25B),
			tfidf: sparse.NewTFIDFIndex(docs, m.tokenizer),
		}
	}
	m.snapshot.Store(snap)
}

// Export returns the current hierarchy for persistence, or nil when no
// index has been built.
func (m *Manager) Export() *Hierarchy {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.hierarchy
}

// Ready reports whether an index snapshot has been published.
func (m *Manager) Ready() bool {
	return m.snapshot.Load() != nil
}

// Search runs BM25 and TF-IDF per level, merges them, applies the level
// weight, unions across levels, and returns the topK candidates. A nil
// levelWeights uses the configured defaults. An empty or missing index
// returns an empty result, never an error.
func (m *Manager) Search(query string, topK int, levelWeights map[types.ChunkLevel]float64) []types.RetrievalCandidate {
	snap := m.snapshot.Load()
	if snap == nil || topK <= 0 || query == "" {
		return nil
	}
	if levelWeights == nil {
		levelWeights = m.config.LevelWeights
	}

	var candidates []types.RetrievalCandidate
	for level, idx := range snap.levels {
		weight, ok := levelWeights[level]
		if !ok {
			weight = 1.0
		}
		merged := make(map[string]float64)
		for _, hit := range idx.bm25.Search(query, topK) {
			merged[hit.ID] += m.config.BM25Weight * hit.Score
		}
		for _, hit := range idx.tfidf.Search(query, topK) {
			merged[hit.ID] += m.config.TFIDFWeight * hit.Score
		}
		for id, score := range merged {
			chunk := snap.chunks[id]
			if chunk == nil {
				continue
			}
			metadata := map[string]any{"level": string(level)}
			if chunk.SectionLabel != "" {
				metadata["section_label"] = chunk.SectionLabel
			}
			candidates = append(candidates, types.RetrievalCandidate{
				ChunkID:    id,
				Content:    chunk.Content,
				Score:      clampUnit(score * weight),
				PolicyID:   chunk.PolicyID,
				SourceTags: []string{types.SourceHierarchical},
				Metadata:   metadata,
			})
		}
	}

	candidates = types.DedupCandidates(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// LevelWeightsForIntent returns level weight presets: eligibility checks
// shift weight toward section and sentence detail, funding questions
// toward the policy overview.
func (m *Manager) LevelWeightsForIntent(intent types.IntentType) map[types.ChunkLevel]float64 {
	switch intent {
	case types.IntentCheckEligibility, types.IntentGetRequirements:
		return map[types.ChunkLevel]float64{
			types.LevelPolicy:   0.7,
			types.LevelSection:  1.0,
			types.LevelSentence: 0.9,
		}
	case types.IntentGetFunding:
		return map[types.ChunkLevel]float64{
			types.LevelPolicy:   1.0,
			types.LevelSection:  0.9,
			types.LevelSentence: 0.6,
		}
	default:
		return m.config.LevelWeights
	}
}

// GetHierarchyContext returns the chunk with its parent, children, and
// siblings. Returns nil when the chunk is unknown or no index is built.
func (m *Manager) GetHierarchyContext(chunkID string) *types.HierarchyContext {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil
	}
	chunk, ok := snap.chunks[chunkID]
	if !ok {
		return nil
	}

	ctx := &types.HierarchyContext{Chunk: chunk}
	parentID := snap.hierarchy.ParentOf[chunkID]
	if parentID != "" {
		ctx.Parent = snap.chunks[parentID]
		for _, siblingID := range snap.hierarchy.ChildrenOf[parentID] {
			if siblingID == chunkID {
				continue
			}
			if sibling := snap.chunks[siblingID]; sibling != nil {
				ctx.Siblings = append(ctx.Siblings, sibling)
			}
		}
	}
	for _, childID := range snap.hierarchy.ChildrenOf[chunkID] {
		if child := snap.chunks[childID]; child != nil {
			ctx.Children = append(ctx.Children, child)
		}
	}
	return ctx
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
