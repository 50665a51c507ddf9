package rerank

import (
	"context"
	"log/slog"

	"github.com/poliscope/poliscope/pkg/types"
)

// llmStageLimit caps the candidate count the LLM stage will rank.
const llmStageLimit = 20

// MultiStage runs a coarse-to-fine cascade: cheap rules shrink a large
// pool, the cross-encoder tightens a mid-size one, and the LLM orders
// the final shortlist. Stages that do not apply are skipped; a failed
// stage passes its input through unchanged.
type MultiStage struct {
	ruleBased    Reranker
	crossEncoder Reranker
	llm          Reranker
	logger       *slog.Logger
}

// NewMultiStage composes the cascade from the three single-method
// rerankers.
func NewMultiStage(ruleBased, crossEncoder, llm Reranker, logger *slog.Logger) *MultiStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiStage{
		ruleBased:    ruleBased,
		crossEncoder: crossEncoder,
		llm:          llm,
		logger:       logger,
	}
}

// Method implements Reranker.
func (r *MultiStage) Method() types.RerankMethod { return types.RerankMultiStage }

// Rerank implements Reranker.
func (r *MultiStage) Rerank(ctx context.Context, req types.RerankRequest) types.RerankResult {
	candidates := req.Candidates

	if len(candidates) > 2*req.TopK {
		coarseK := req.TopK + req.TopK/2
		candidates = r.stage(ctx, r.ruleBased, req, candidates, coarseK)
	}

	if len(candidates) > req.TopK {
		candidates = r.stage(ctx, r.crossEncoder, req, candidates, req.TopK)
	}

	if len(candidates) <= llmStageLimit {
		candidates = r.stage(ctx, r.llm, req, candidates, req.TopK)
	}

	return types.RerankResult{
		Candidates: truncate(candidates, req.TopK),
		Method:     types.RerankMultiStage,
		Success:    true,
	}
}

// stage runs one cascade step, keeping the input on failure.
func (r *MultiStage) stage(ctx context.Context, reranker Reranker, req types.RerankRequest, candidates []types.RetrievalCandidate, topK int) []types.RetrievalCandidate {
	stageReq := req
	stageReq.Candidates = candidates
	stageReq.TopK = topK
	stageReq.Method = reranker.Method()

	result := reranker.Rerank(ctx, stageReq)
	if !result.Success {
		r.logger.Warn("cascade stage degraded",
			"stage", string(reranker.Method()), "error", result.Error)
	}
	if len(result.Candidates) == 0 {
		return candidates
	}
	return result.Candidates
}
