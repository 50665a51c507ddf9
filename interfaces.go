package poliscope

import (
	"context"

	"github.com/poliscope/poliscope/pkg/store"
	"github.com/poliscope/poliscope/pkg/types"
)

// This file defines focused interfaces following the Interface
// Segregation Principle. The main Poliscope interface is composed from
// these smaller interfaces; consumers should depend on the smallest
// interface that meets their needs.

// Searcher runs retrieval queries against the indexed corpus.
type Searcher interface {
	// Search runs the full pipeline: query understanding, strategy
	// dispatch, fusion, filtering, reranking, and optional summary.
	Search(ctx context.Context, req SearchRequest) (*types.Response, error)
}

// PolicyMatcher aggregates chunk hits into whole-policy matches.
type PolicyMatcher interface {
	// MatchPolicies returns policies ranked by their best matching
	// chunks for the query.
	MatchPolicies(ctx context.Context, query string, topK int) ([]types.PolicyMatch, error)
}

// IndexAdmin manages the index lifecycle.
type IndexAdmin interface {
	// IndexChunks builds the hierarchical index and the vector store
	// from flat document chunks, replacing any previous index.
	IndexChunks(ctx context.Context, chunks []types.Chunk) error

	// SaveSnapshot persists the current hierarchical index. It fails
	// when no snapshot store is configured or no index is built.
	SaveSnapshot(ctx context.Context) error

	// RestoreLatest loads the most recent snapshot into the
	// hierarchical index. The vector store is rebuilt from the
	// restored chunks.
	RestoreLatest(ctx context.Context) error

	// Ready reports whether an index is available to serve queries.
	Ready() bool
}

// Poliscope is the full engine surface.
type Poliscope interface {
	Searcher
	PolicyMatcher
	IndexAdmin

	// Close releases worker pools and the snapshot store.
	Close() error
}

// ChunkStore is the storage backend the engine indexes into and
// retrieves from. store.MemoryStore implements it; production deployments
// can substitute a database-backed implementation.
type ChunkStore interface {
	store.VectorStore

	// Index replaces the stored corpus with the given chunks.
	Index(ctx context.Context, chunks []types.Chunk) error

	// KeywordStore exposes the keyword search view of the same corpus.
	KeywordStore() store.KeywordStore
}

var _ Poliscope = (*Client)(nil)
var _ ChunkStore = (*store.MemoryStore)(nil)
