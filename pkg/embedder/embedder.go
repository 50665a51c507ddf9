// Package embedder provides text embedding clients for vector representations.
//
// The Client interface produces unit-length dense vectors. An
// OpenAI-compatible implementation is provided, plus a deterministic
// mock for tests and the demo CLI. Implementations may additionally
// satisfy QueryExpander to supply similarity-based query expansions to
// the retriever.
package embedder

import (
	"context"
	"math"
)

// Client generates dense vector embeddings. Returned vectors are
// normalized to unit length.
type Client interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}

// QueryExpander is an optional extension: clients that can propose
// semantically similar query phrasings implement it. The retriever
// falls back to its synonym dictionaries otherwise.
type QueryExpander interface {
	ExpandQuery(ctx context.Context, query string, limit int) ([]string, error)
}

// Normalize scales vec to unit length in place and returns it. A zero
// vector is returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of two vectors, 0 when lengths
// differ or either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
