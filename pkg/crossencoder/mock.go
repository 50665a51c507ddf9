package crossencoder

import (
	"context"
	"strings"
)

// MockClient scores passages by naive token overlap with the query.
// Deterministic and dependency-free, for tests.
type MockClient struct {
	Err error
}

var _ Client = (*MockClient)(nil)

// Rank returns overlap-based scores in input order.
func (m *MockClient) Rank(_ context.Context, query string, passages []string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	queryTokens := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(passages))
	for i, p := range passages {
		lower := strings.ToLower(p)
		var hits int
		for _, tok := range queryTokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if len(queryTokens) > 0 {
			scores[i] = float64(hits) / float64(len(queryTokens))
		}
	}
	return scores, nil
}
