package types

// Strategy selects which retrieval paths the orchestrator runs.
type Strategy string

const (
	// StrategySimple runs a single dense search over the raw query.
	StrategySimple Strategy = "simple"
	// StrategyHybrid runs the hybrid retriever (dense + keyword + fusion).
	StrategyHybrid Strategy = "hybrid"
	// StrategyHierarchical searches the multi-level index only.
	StrategyHierarchical Strategy = "hierarchical"
	// StrategyMultiRepresentation runs dense, sparse, and
	// keyword-enhanced searches separately and merges them.
	StrategyMultiRepresentation Strategy = "multi_representation"
	// StrategyFullAdvanced runs hybrid, hierarchical, and
	// multi-representation retrieval together.
	StrategyFullAdvanced Strategy = "full_advanced"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySimple, StrategyHybrid, StrategyHierarchical,
		StrategyMultiRepresentation, StrategyFullAdvanced:
		return true
	}
	return false
}

// Defaults for result set sizing.
const (
	DefaultTopK = 10
	MaxTopK     = 50
)

// Stats summarizes one retrieval run.
type Stats struct {
	RawCount    int      `json:"raw_count"`
	FinalCount  int      `json:"final_count"`
	AvgScore    float64  `json:"avg_score"`
	SourcesUsed []string `json:"sources_used,omitempty"`
}

// Response is the orchestrator's answer to one query.
type Response struct {
	Query        string               `json:"query"`
	Results      []RetrievalCandidate `json:"results"`
	Summary      string               `json:"summary,omitempty"`
	Optimization string               `json:"optimization,omitempty"`
	StrategyUsed Strategy             `json:"strategy_used"`
	RerankMethod RerankMethod         `json:"rerank_method,omitempty"`
	Stats        Stats                `json:"stats"`
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`

	// Suggestions is populated when retrieval came back empty, to help
	// the caller rephrase.
	Suggestions []string `json:"suggestions,omitempty"`
}

// PolicyMatch aggregates candidates belonging to one policy document.
type PolicyMatch struct {
	PolicyID      string               `json:"policy_id"`
	Title         string               `json:"title,omitempty"`
	Score         float64              `json:"score"`
	MatchedChunks []RetrievalCandidate `json:"matched_chunks"`

	// KeyInformation holds per-category snippets pulled from the matched
	// content (policy type, benefits, conditions).
	KeyInformation map[string]string `json:"key_information,omitempty"`
}
