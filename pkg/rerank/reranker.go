// Package rerank reorders retrieval candidates by relevance.
//
// Four rerankers implement the Reranker interface: rule-based lexical
// heuristics, a cross-encoder model, an LLM ranking prompt, and a
// multi-stage cascade composing the other three. The Engine dispatches
// by method tag and can auto-select based on candidate count and query
// complexity. Every reranker degrades to the input order truncated to
// top_k on failure.
package rerank

import (
	"context"
	"log/slog"

	"github.com/poliscope/poliscope/pkg/crossencoder"
	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/types"
)

// Reranker reorders a candidate list.
type Reranker interface {
	Rerank(ctx context.Context, req types.RerankRequest) types.RerankResult
	Method() types.RerankMethod
}

// Config tunes the reranking engine.
type Config struct {
	// BatchSize for LLM ranking prompts (default 10).
	BatchSize int
	// SnippetLength bounds candidate content in LLM prompts (default 200 runes).
	SnippetLength int

	// CrossEncoderBlend: final = 0.7·model + 0.3·original.
	CrossEncoderModelWeight    float64
	CrossEncoderOriginalWeight float64

	// LLMBlend: final = 0.6·rankScore + 0.4·original.
	LLMRankWeight     float64
	LLMOriginalWeight float64

	// RuleBlend: final = 0.7·original + 0.3·ruleScore.
	RuleOriginalWeight float64
	RuleScoreWeight    float64
}

// DefaultConfig returns the standard blend weights.
func DefaultConfig() Config {
	return Config{
		BatchSize:                  10,
		SnippetLength:              200,
		CrossEncoderModelWeight:    0.7,
		CrossEncoderOriginalWeight: 0.3,
		LLMRankWeight:              0.6,
		LLMOriginalWeight:          0.4,
		RuleOriginalWeight:         0.7,
		RuleScoreWeight:            0.3,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.SnippetLength <= 0 {
		c.SnippetLength = def.SnippetLength
	}
	// Each blend pair defaults as a group so a deliberate zero weight
	// alongside a configured one survives.
	if c.CrossEncoderModelWeight == 0 && c.CrossEncoderOriginalWeight == 0 {
		c.CrossEncoderModelWeight = def.CrossEncoderModelWeight
		c.CrossEncoderOriginalWeight = def.CrossEncoderOriginalWeight
	}
	if c.LLMRankWeight == 0 && c.LLMOriginalWeight == 0 {
		c.LLMRankWeight = def.LLMRankWeight
		c.LLMOriginalWeight = def.LLMOriginalWeight
	}
	if c.RuleOriginalWeight == 0 && c.RuleScoreWeight == 0 {
		c.RuleOriginalWeight = def.RuleOriginalWeight
		c.RuleScoreWeight = def.RuleScoreWeight
	}
}

// Engine holds one reranker per method and dispatches requests.
type Engine struct {
	rerankers map[types.RerankMethod]Reranker
	logger    *slog.Logger
}

// NewEngine wires the full reranker set. A nil crossClient disables the
// cross-encoder stages (they fall back to rule-based); a nil llmClient
// likewise disables LLM ranking.
func NewEngine(crossClient crossencoder.Client, llmClient nlp.Client, config Config, logger *slog.Logger) *Engine {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	ruleBased := NewRuleBased(config)
	crossEnc := NewCrossEncoder(crossClient, config, logger)
	llm := NewLLM(llmClient, config, logger)

	e := &Engine{
		rerankers: map[types.RerankMethod]Reranker{
			types.RerankRuleBased:    ruleBased,
			types.RerankCrossEncoder: crossEnc,
			types.RerankLLM:          llm,
		},
		logger: logger,
	}
	e.rerankers[types.RerankMultiStage] = NewMultiStage(ruleBased, crossEnc, llm, logger)
	return e
}

// Rerank dispatches the request. RerankAuto and an unknown method both
// resolve through AutoSelect. Empty candidate lists short-circuit.
func (e *Engine) Rerank(ctx context.Context, req types.RerankRequest) types.RerankResult {
	if err := req.Validate(); err != nil {
		return types.RerankResult{Method: req.Method, Error: err.Error()}
	}
	if len(req.Candidates) == 0 {
		return types.RerankResult{Method: req.Method, Success: true}
	}

	method := req.Method
	if method == "" || method == types.RerankAuto {
		method = AutoSelect(len(req.Candidates), req.Complexity)
	}
	reranker, ok := e.rerankers[method]
	if !ok {
		method = AutoSelect(len(req.Candidates), req.Complexity)
		reranker = e.rerankers[method]
	}

	req.Method = method
	result := reranker.Rerank(ctx, req)
	if !result.Success {
		e.logger.Warn("rerank degraded to input order",
			"method", string(method), "error", result.Error)
	}
	return result
}

// AutoSelect picks the reranker for a candidate count and complexity:
// tiny sets afford an LLM ranking, small complex sets the full cascade,
// mid-size sets the cross-encoder, and everything larger the cheap
// rules.
func AutoSelect(candidateCount int, complexity types.Complexity) types.RerankMethod {
	switch {
	case candidateCount <= 5:
		return types.RerankLLM
	case candidateCount <= 20 && complexity == types.ComplexityComplex:
		return types.RerankMultiStage
	case candidateCount <= 50:
		return types.RerankCrossEncoder
	default:
		return types.RerankRuleBased
	}
}

// fallback returns the input order truncated to top_k with the failure
// recorded.
func fallback(req types.RerankRequest, method types.RerankMethod, err error) types.RerankResult {
	candidates := req.Candidates
	if len(candidates) > req.TopK {
		candidates = candidates[:req.TopK]
	}
	result := types.RerankResult{
		Candidates: candidates,
		Method:     method,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// truncate bounds candidates to topK.
func truncate(candidates []types.RetrievalCandidate, topK int) []types.RetrievalCandidate {
	if topK > 0 && len(candidates) > topK {
		return candidates[:topK]
	}
	return candidates
}

// originalScore returns the candidate's pre-rerank score, stashing it
// in metadata on first rerank so repeated reranking is idempotent.
func originalScore(c *types.RetrievalCandidate) float64 {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	if v, ok := c.Metadata["original_score"].(float64); ok {
		return v
	}
	c.Metadata["original_score"] = c.Score
	return c.Score
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
