// Package crossencoder scores (query, passage) pairs for relevance.
//
// The Client interface returns one score per passage, aligned with the
// input order and normalized to [0,1]. Two implementations are
// provided: an LLM-judged scorer that classifies each pair with a
// boolean prompt, and an embedding scorer that approximates the
// cross-encoder with cosine similarity.
package crossencoder

import (
	"context"
)

// Client scores passages against a query. Scores align with the input
// order and fall in [0,1].
type Client interface {
	Rank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Config holds shared settings for cross-encoder clients.
type Config struct {
	// MaxConcurrency bounds concurrent scoring calls (default 8).
	MaxConcurrency int
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 8
	}
}

// normalizeScores rescales scores to [0,1] in place when there is
// variance; a flat list is left unchanged.
func normalizeScores(scores []float64) {
	if len(scores) == 0 {
		return
	}
	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore <= minScore {
		return
	}
	span := maxScore - minScore
	for i := range scores {
		scores[i] = (scores[i] - minScore) / span
	}
}
