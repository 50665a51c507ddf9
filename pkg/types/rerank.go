package types

// RerankMethod selects a reranker implementation.
type RerankMethod string

const (
	// RerankAuto lets the engine choose based on candidate count and
	// query complexity.
	RerankAuto RerankMethod = "auto"
	// RerankRuleBased scores with cheap lexical heuristics.
	RerankRuleBased RerankMethod = "rule_based"
	// RerankCrossEncoder scores (query, passage) pairs with a relevance model.
	RerankCrossEncoder RerankMethod = "cross_encoder"
	// RerankLLM asks a language model for a relevance ranking.
	RerankLLM RerankMethod = "llm"
	// RerankMultiStage cascades rule-based, cross-encoder, and LLM stages.
	RerankMultiStage RerankMethod = "multi_stage"
)

// RerankRequest carries a candidate list into the reranking engine.
type RerankRequest struct {
	Query      string               `json:"query"`
	Candidates []RetrievalCandidate `json:"candidates"`
	Method     RerankMethod         `json:"method"`
	TopK       int                  `json:"top_k"`

	// Complexity informs auto-selection; empty means unknown.
	Complexity Complexity `json:"complexity,omitempty"`

	// Context is optional caller context (e.g. applicant profile) passed
	// through to LLM-backed rerankers.
	Context string `json:"context,omitempty"`
}

// Validate checks the request is runnable.
func (r *RerankRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if r.TopK <= 0 {
		return ErrInvalidTopK
	}
	return nil
}

// RerankResult is the reranking engine's output. When Success is false
// the candidates are the input order truncated to top_k.
type RerankResult struct {
	Candidates []RetrievalCandidate `json:"candidates"`
	Method     RerankMethod         `json:"method"`
	Success    bool                 `json:"success"`
	Error      string               `json:"error,omitempty"`
}
