package crossencoder

import (
	"context"
	"errors"
	"testing"

	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/nlp"
)

func TestLLMClientRank(t *testing.T) {
	t.Parallel()

	mock := &nlp.MockClient{Responses: []string{"True"}}
	c := NewLLMClient(mock, Config{MaxConcurrency: 1})

	scores, err := c.Rank(context.Background(), "startup subsidy", []string{"subsidy program for startups"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 || scores[0] != 0.8 {
		t.Errorf("scores = %v, want [0.8]", scores)
	}
}

func TestLLMClientScoreMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		response string
		want     float64
	}{
		{"True", 0.8},
		{"true.", 0.8},
		{"False", 0.2},
		{"FALSE, definitely", 0.2},
		{"maybe relevant", 0.5},
	}
	for _, tt := range tests {
		mock := &nlp.MockClient{Responses: []string{tt.response}}
		c := NewLLMClient(mock, Config{MaxConcurrency: 1})
		scores, err := c.Rank(context.Background(), "q", []string{"p"})
		if err != nil {
			t.Fatal(err)
		}
		if scores[0] != tt.want {
			t.Errorf("response %q scored %f, want %f", tt.response, scores[0], tt.want)
		}
	}
}

func TestLLMClientAllFailures(t *testing.T) {
	t.Parallel()

	mock := &nlp.MockClient{Err: errors.New("backend down")}
	c := NewLLMClient(mock, Config{})
	if _, err := c.Rank(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatal("expected error when every scoring call fails")
	}
}

func TestEmbeddingClientRank(t *testing.T) {
	t.Parallel()

	c := NewEmbeddingClient(embedder.NewMockClient(32))
	scores, err := c.Rank(context.Background(), "startup subsidy",
		[]string{"startup subsidy details", "unrelated agricultural zoning text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores = %v", scores)
	}
	if scores[0] <= scores[1] {
		t.Errorf("related passage should outscore unrelated: %v", scores)
	}
	for _, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("score out of range: %v", scores)
		}
	}
}

func TestRankEmptyPassages(t *testing.T) {
	t.Parallel()

	llm := NewLLMClient(&nlp.MockClient{Responses: []string{"True"}}, Config{})
	if scores, err := llm.Rank(context.Background(), "q", nil); err != nil || scores != nil {
		t.Errorf("empty passages: %v, %v", scores, err)
	}
}

func TestNormalizeScores(t *testing.T) {
	t.Parallel()

	scores := []float64{0.2, 0.6, 1.0}
	normalizeScores(scores)
	if scores[0] != 0 || scores[2] != 1 {
		t.Errorf("normalized = %v", scores)
	}

	flat := []float64{0.4, 0.4}
	normalizeScores(flat)
	if flat[0] != 0.4 || flat[1] != 0.4 {
		t.Errorf("flat scores should be unchanged, got %v", flat)
	}
}
