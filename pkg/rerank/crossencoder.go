package rerank

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poliscope/poliscope/pkg/crossencoder"
	"github.com/poliscope/poliscope/pkg/types"
)

// CrossEncoder scores every (query, passage) pair with a cross-encoder
// model and blends the model score with the pre-rerank score. A model
// failure degrades to the input order.
type CrossEncoder struct {
	client crossencoder.Client
	config Config
	logger *slog.Logger
}

// NewCrossEncoder builds the model-backed reranker. A nil client makes
// every request degrade to the input order.
func NewCrossEncoder(client crossencoder.Client, config Config, logger *slog.Logger) *CrossEncoder {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &CrossEncoder{client: client, config: config, logger: logger}
}

// Method implements Reranker.
func (r *CrossEncoder) Method() types.RerankMethod { return types.RerankCrossEncoder }

// Rerank implements Reranker.
func (r *CrossEncoder) Rerank(ctx context.Context, req types.RerankRequest) types.RerankResult {
	if r.client == nil {
		return fallback(req, types.RerankCrossEncoder, errors.New("cross-encoder client not configured"))
	}

	passages := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		passages[i] = c.Content
	}

	scores, err := r.client.Rank(ctx, req.Query, passages)
	if err != nil || len(scores) != len(req.Candidates) {
		if err == nil {
			err = errors.New("cross-encoder returned mismatched score count")
		}
		r.logger.Warn("cross-encoder rerank failed", "error", err)
		return fallback(req, types.RerankCrossEncoder, err)
	}

	candidates := make([]types.RetrievalCandidate, len(req.Candidates))
	copy(candidates, req.Candidates)
	for i := range candidates {
		orig := originalScore(&candidates[i])
		candidates[i].Score = clampUnit(
			r.config.CrossEncoderModelWeight*scores[i] +
				r.config.CrossEncoderOriginalWeight*orig)
	}
	types.SortCandidates(candidates)

	return types.RerankResult{
		Candidates: truncate(candidates, req.TopK),
		Method:     types.RerankCrossEncoder,
		Success:    true,
	}
}
