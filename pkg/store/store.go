// Package store defines the vector and keyword search backends the
// retriever depends on, plus an in-memory implementation used by tests
// and the demo CLI.
package store

import (
	"context"

	"github.com/poliscope/poliscope/pkg/types"
)

// Result is one scored hit from a backend search.
type Result struct {
	ChunkID string
	Score   float64
}

// VectorStore searches by dense vector similarity. Scores are
// normalized to [0,1].
type VectorStore interface {
	Search(ctx context.Context, vector []float32, topK int, filters types.Filters) ([]Result, error)
	Get(ctx context.Context, chunkID string) (*types.Chunk, error)
}

// KeywordStore searches by literal keyword relevance, comparable to
// BM25. Scores are normalized to [0,1].
type KeywordStore interface {
	Search(ctx context.Context, query string, filters types.Filters, topK int) ([]Result, error)
}

// matchesFilters reports whether a chunk passes the filter set. A chunk
// without the relevant structured field is not excluded; filters only
// reject positive mismatches.
func matchesFilters(chunk *types.Chunk, filters types.Filters) bool {
	if filters.IsZero() {
		return true
	}
	if !fieldMatches(chunk.StructuredFields["policy_type"], filters.PolicyTypes) {
		return false
	}
	if !fieldMatches(chunk.StructuredFields["industry"], filters.Industries) {
		return false
	}
	if !fieldMatches(chunk.StructuredFields["scale"], filters.Scales) {
		return false
	}
	if filters.Region != "" {
		if region := chunk.StructuredFields["region"]; region != "" && region != filters.Region {
			return false
		}
	}
	return true
}

func fieldMatches(value string, allowed []string) bool {
	if value == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
