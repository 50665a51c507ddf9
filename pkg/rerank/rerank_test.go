package rerank

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/types"
)

// stubCrossEncoder returns fixed scores or an error.
type stubCrossEncoder struct {
	scores []float64
	err    error
}

func (s *stubCrossEncoder) Rank(_ context.Context, _ string, passages []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.scores != nil {
		return s.scores, nil
	}
	out := make([]float64, len(passages))
	for i := range out {
		out[i] = 0.5
	}
	return out, nil
}

func makeCandidates(n int) []types.RetrievalCandidate {
	out := make([]types.RetrievalCandidate, n)
	for i := 0; i < n; i++ {
		out[i] = types.RetrievalCandidate{
			ChunkID:  fmt.Sprintf("chunk-%03d", i),
			PolicyID: "policy-1",
			Content:  fmt.Sprintf("funding support clause %d for small enterprises", i),
			Score:    1.0 - float64(i)*0.01,
		}
	}
	return out
}

func TestAutoSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		count      int
		complexity types.Complexity
		want       types.RerankMethod
	}{
		{"tiny set uses llm", 3, types.ComplexitySimple, types.RerankLLM},
		{"boundary five uses llm", 5, types.ComplexityModerate, types.RerankLLM},
		{"small complex uses cascade", 15, types.ComplexityComplex, types.RerankMultiStage},
		{"small moderate uses cross encoder", 15, types.ComplexityModerate, types.RerankCrossEncoder},
		{"mid set uses cross encoder", 30, types.ComplexityModerate, types.RerankCrossEncoder},
		{"boundary fifty uses cross encoder", 50, types.ComplexitySimple, types.RerankCrossEncoder},
		{"large set uses rules", 80, types.ComplexityComplex, types.RerankRuleBased},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AutoSelect(tt.count, tt.complexity); got != tt.want {
				t.Errorf("AutoSelect(%d, %s) = %s, want %s", tt.count, tt.complexity, got, tt.want)
			}
		})
	}
}

func TestRuleBasedIdempotent(t *testing.T) {
	t.Parallel()

	reranker := NewRuleBased(Config{})
	req := types.RerankRequest{
		Query: "biomedical startup funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "a", Content: "biomedical startup funding available for qualified applicants in the zone", Score: 0.6},
			{ChunkID: "b", Content: "general administrative notice about office hours", Score: 0.9},
			{ChunkID: "c", Content: "1. funding standard\n2. startup eligibility requirements apply here", Score: 0.6},
		},
		TopK: 10,
	}

	first := reranker.Rerank(context.Background(), req)
	if !first.Success {
		t.Fatalf("first rerank failed: %s", first.Error)
	}

	second := reranker.Rerank(context.Background(), types.RerankRequest{
		Query:      req.Query,
		Candidates: first.Candidates,
		TopK:       req.TopK,
	})
	if !second.Success {
		t.Fatalf("second rerank failed: %s", second.Error)
	}
	if len(second.Candidates) != len(first.Candidates) {
		t.Fatalf("candidate count changed: %d -> %d", len(first.Candidates), len(second.Candidates))
	}
	for i := range first.Candidates {
		if first.Candidates[i].ChunkID != second.Candidates[i].ChunkID {
			t.Errorf("position %d: ordering changed %s -> %s",
				i, first.Candidates[i].ChunkID, second.Candidates[i].ChunkID)
		}
		if first.Candidates[i].Score != second.Candidates[i].Score {
			t.Errorf("position %d: score changed %f -> %f",
				i, first.Candidates[i].Score, second.Candidates[i].Score)
		}
	}
}

func TestRuleBasedTieBreakByChunkID(t *testing.T) {
	t.Parallel()

	reranker := NewRuleBased(Config{})
	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "unrelated terms entirely",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "zz", Content: "identical body of sufficient length to avoid the short content penalty applying here", Score: 0.5},
			{ChunkID: "aa", Content: "identical body of sufficient length to avoid the short content penalty applying here", Score: 0.5},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "aa" {
		t.Errorf("equal scores should order by chunk id, got %s first", result.Candidates[0].ChunkID)
	}
}

func TestRuleBasedPrefersLexicalMatch(t *testing.T) {
	t.Parallel()

	reranker := NewRuleBased(Config{})
	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "startup funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "plain", Content: "an unrelated paragraph about municipal road maintenance schedules and closures", Score: 0.7},
			{ChunkID: "match", Content: "startup funding is available: the startup funding program covers early stage teams", Score: 0.7},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "match" {
		t.Errorf("lexical match should outrank unrelated content, got %s first", result.Candidates[0].ChunkID)
	}
}

func TestRuleBasedLexicalMatchOverridesWeakOriginal(t *testing.T) {
	t.Parallel()

	// The rule term starts at 1.0, so a weak pre-rerank score cannot
	// drag down strong lexical evidence.
	reranker := NewRuleBased(Config{})
	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "startup funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "weak", Content: "startup funding is available: the startup funding program covers early stage teams", Score: 0.2},
			{ChunkID: "strong", Content: "an unrelated paragraph about municipal road maintenance schedules and closures", Score: 0.9},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "weak" {
		t.Errorf("lexical evidence should outrank a high original score, got %s first", result.Candidates[0].ChunkID)
	}
	for _, c := range result.Candidates {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("score %f out of range for %s", c.Score, c.ChunkID)
		}
	}
}

func TestCrossEncoderBlendsModelAndOriginal(t *testing.T) {
	t.Parallel()

	// Model strongly prefers the second candidate.
	client := &stubCrossEncoder{scores: []float64{0.1, 0.95}}
	reranker := NewCrossEncoder(client, Config{}, nil)

	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "a", Content: "first", Score: 0.8},
			{ChunkID: "b", Content: "second", Score: 0.3},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "b" {
		t.Errorf("model preference should dominate, got %s first", result.Candidates[0].ChunkID)
	}
	// 0.7*0.95 + 0.3*0.3 = 0.755
	if got := result.Candidates[0].Score; got < 0.75 || got > 0.76 {
		t.Errorf("blended score = %f, want ~0.755", got)
	}
}

func TestCrossEncoderFailureKeepsInputOrder(t *testing.T) {
	t.Parallel()

	client := &stubCrossEncoder{err: errors.New("model unavailable")}
	reranker := NewCrossEncoder(client, Config{}, nil)

	candidates := makeCandidates(5)
	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query:      "funding",
		Candidates: candidates,
		TopK:       3,
	})
	if result.Success {
		t.Fatal("expected degraded result")
	}
	if result.Error == "" {
		t.Error("degraded result should carry the error")
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("fallback should truncate to top_k, got %d", len(result.Candidates))
	}
	for i := 0; i < 3; i++ {
		if result.Candidates[i].ChunkID != candidates[i].ChunkID {
			t.Errorf("position %d: fallback reordered input", i)
		}
	}
}

func TestLLMRerankNumberedLines(t *testing.T) {
	t.Parallel()

	client := &nlp.MockClient{Responses: []string{"1. c2\n2. c3\n3. c1"}}
	reranker := NewLLM(client, Config{}, nil)

	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "c1", Content: "one", Score: 0.9},
			{ChunkID: "c2", Content: "two", Score: 0.5},
			{ChunkID: "c3", Content: "three", Score: 0.5},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "c2" {
		t.Errorf("model rank 1 should lead, got %s", result.Candidates[0].ChunkID)
	}
	// c2: 0.6*1.0 + 0.4*0.5 = 0.8
	if got := result.Candidates[0].Score; got < 0.79 || got > 0.81 {
		t.Errorf("top score = %f, want ~0.8", got)
	}
}

func TestLLMRerankJSONArray(t *testing.T) {
	t.Parallel()

	// Trailing comma is repairable.
	client := &nlp.MockClient{Responses: []string{`["c3", "c1",]`}}
	reranker := NewLLM(client, Config{}, nil)

	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query: "funding",
		Candidates: []types.RetrievalCandidate{
			{ChunkID: "c1", Content: "one", Score: 0.2},
			{ChunkID: "c2", Content: "two", Score: 0.2},
			{ChunkID: "c3", Content: "three", Score: 0.2},
		},
		TopK: 10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "c3" {
		t.Errorf("json rank 1 should lead, got %s", result.Candidates[0].ChunkID)
	}
	// c2 was never mentioned: rank 999 puts it last.
	if result.Candidates[2].ChunkID != "c2" {
		t.Errorf("unranked candidate should sink, got %s last", result.Candidates[2].ChunkID)
	}
}

func TestLLMRerankUnparseableKeepsInputOrder(t *testing.T) {
	t.Parallel()

	client := &nlp.MockClient{Responses: []string{"I cannot rank these documents."}}
	reranker := NewLLM(client, Config{}, nil)

	candidates := []types.RetrievalCandidate{
		{ChunkID: "c1", Content: "one", Score: 0.9},
		{ChunkID: "c2", Content: "two", Score: 0.5},
	}
	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query:      "funding",
		Candidates: candidates,
		TopK:       10,
	})
	if result.Success {
		t.Fatal("expected degraded result when no batch parses")
	}
	for i, c := range result.Candidates {
		if c.ChunkID != candidates[i].ChunkID {
			t.Errorf("position %d: fallback reordered input", i)
		}
	}
}

func TestLLMRerankBatchFailureIsPartial(t *testing.T) {
	t.Parallel()

	// First batch parses, second does not. The failed batch keeps its
	// input positions as ranks.
	client := &nlp.MockClient{Responses: []string{
		"1. chunk-001\n2. chunk-000",
		"no ranking here",
	}}
	reranker := NewLLM(client, Config{BatchSize: 2}, nil)

	result := reranker.Rerank(context.Background(), types.RerankRequest{
		Query:      "funding",
		Candidates: makeCandidates(4),
		TopK:       10,
	})
	if !result.Success {
		t.Fatalf("partial batch failure should not degrade the whole result: %s", result.Error)
	}
	if result.Candidates[0].ChunkID != "chunk-001" {
		t.Errorf("ranked batch should lead, got %s", result.Candidates[0].ChunkID)
	}
	if client.CallCount() != 2 {
		t.Errorf("expected 2 batches, got %d calls", client.CallCount())
	}
}

func TestMultiStageCascadeShrinksToTopK(t *testing.T) {
	t.Parallel()

	client := &nlp.MockClient{Responses: []string{"1. chunk-000\n2. chunk-001"}}
	engine := NewEngine(&stubCrossEncoder{}, client, Config{}, nil)

	result := engine.Rerank(context.Background(), types.RerankRequest{
		Query:      "startup funding support",
		Candidates: makeCandidates(30),
		Method:     types.RerankMultiStage,
		TopK:       10,
	})
	if !result.Success {
		t.Fatalf("cascade failed: %s", result.Error)
	}
	if result.Method != types.RerankMultiStage {
		t.Errorf("method = %s, want multi_stage", result.Method)
	}
	if len(result.Candidates) != 10 {
		t.Errorf("cascade should return exactly top_k, got %d", len(result.Candidates))
	}
	for _, c := range result.Candidates {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("score %f out of range for %s", c.Score, c.ChunkID)
		}
	}
}

func TestEngineAutoDispatch(t *testing.T) {
	t.Parallel()

	client := &nlp.MockClient{Responses: []string{"1. chunk-002\n2. chunk-000\n3. chunk-001"}}
	engine := NewEngine(&stubCrossEncoder{}, client, Config{}, nil)

	result := engine.Rerank(context.Background(), types.RerankRequest{
		Query:      "funding",
		Candidates: makeCandidates(3),
		Method:     types.RerankAuto,
		TopK:       10,
	})
	if !result.Success {
		t.Fatalf("rerank failed: %s", result.Error)
	}
	if result.Method != types.RerankLLM {
		t.Errorf("three candidates should auto-select llm, got %s", result.Method)
	}
	if result.Candidates[0].ChunkID != "chunk-002" {
		t.Errorf("llm ranking should apply, got %s first", result.Candidates[0].ChunkID)
	}
}

func TestEngineValidation(t *testing.T) {
	t.Parallel()

	engine := NewEngine(&stubCrossEncoder{}, &nlp.MockClient{}, Config{}, nil)

	result := engine.Rerank(context.Background(), types.RerankRequest{Query: "", TopK: 10})
	if result.Success {
		t.Error("empty query should fail validation")
	}

	result = engine.Rerank(context.Background(), types.RerankRequest{Query: "q", TopK: 5})
	if !result.Success {
		t.Errorf("empty candidate list should short-circuit successfully: %s", result.Error)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
}

func TestConfigZeroWeightPreserved(t *testing.T) {
	t.Parallel()

	cfg := Config{RuleOriginalWeight: 1.0, RuleScoreWeight: 0}
	cfg.applyDefaults()
	if cfg.RuleOriginalWeight != 1.0 || cfg.RuleScoreWeight != 0 {
		t.Errorf("configured rule blend changed: %+v", cfg)
	}
	def := DefaultConfig()
	if cfg.LLMRankWeight != def.LLMRankWeight || cfg.LLMOriginalWeight != def.LLMOriginalWeight {
		t.Errorf("untouched pair did not get defaults: %+v", cfg)
	}
}
