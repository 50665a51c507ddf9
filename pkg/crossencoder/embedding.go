package crossencoder

import (
	"context"
	"fmt"

	"github.com/poliscope/poliscope/pkg/embedder"
)

// EmbeddingClient approximates a cross-encoder with bi-encoder cosine
// similarity. Not a true cross-encoder (which processes the pair
// jointly), but a cheap fallback that needs no extra model.
type EmbeddingClient struct {
	embedder embedder.Client
}

var _ Client = (*EmbeddingClient)(nil)

// NewEmbeddingClient creates an embedding-based cross-encoder.
func NewEmbeddingClient(embedderClient embedder.Client) *EmbeddingClient {
	return &EmbeddingClient{embedder: embedderClient}
}

// Rank scores passages by cosine similarity to the query embedding,
// min-max normalized to [0,1].
func (c *EmbeddingClient) Rank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	if c.embedder == nil {
		return nil, fmt.Errorf("embedder client is nil")
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	passageEmbeddings, err := c.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to create passage embeddings: %w", err)
	}
	if len(passageEmbeddings) != len(passages) {
		return nil, fmt.Errorf("expected %d passage embeddings, got %d", len(passages), len(passageEmbeddings))
	}

	scores := make([]float64, len(passages))
	for i := range passages {
		scores[i] = embedder.Cosine(queryEmbedding, passageEmbeddings[i])
	}
	normalizeScores(scores)
	return scores, nil
}
