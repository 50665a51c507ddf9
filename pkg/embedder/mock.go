package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// MockClient is a deterministic embedder for tests and the demo CLI.
// Texts sharing tokens produce similar vectors, so cosine ranking
// behaves plausibly without a model.
type MockClient struct {
	Dim int

	// Expansions, when set, makes the mock satisfy QueryExpander.
	Expansions map[string][]string
}

var _ Client = (*MockClient)(nil)
var _ QueryExpander = (*MockClient)(nil)

// NewMockClient creates a mock embedder with the given dimensionality.
func NewMockClient(dim int) *MockClient {
	if dim <= 0 {
		dim = 64
	}
	return &MockClient{Dim: dim}
}

// Embed generates embeddings for the given texts.
func (m *MockClient) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorize(text)
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (m *MockClient) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return m.vectorize(text), nil
}

// Dimensions returns the embedding dimensionality.
func (m *MockClient) Dimensions() int {
	return m.Dim
}

// ExpandQuery returns configured expansions for the query, if any.
func (m *MockClient) ExpandQuery(_ context.Context, query string, limit int) ([]string, error) {
	expansions := m.Expansions[query]
	if len(expansions) > limit {
		expansions = expansions[:limit]
	}
	return expansions, nil
}

// vectorize sums one smooth basis vector per token so shared tokens
// yield correlated embeddings.
func (m *MockClient) vectorize(text string) []float32 {
	vec := make([]float32, m.Dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		seed := float64(h.Sum32())
		for i := range vec {
			vec[i] += float32(math.Sin(seed + float64(i)*seed/1e6))
		}
	}
	return Normalize(vec)
}
