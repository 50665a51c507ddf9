package poliscope

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/retriever"
	"github.com/poliscope/poliscope/pkg/store"
	"github.com/poliscope/poliscope/pkg/types"
)

// maxSourceFanOut bounds concurrent retrieval sources per request.
const maxSourceFanOut = 8

// summaryResultLimit is how many top results feed the LLM summary.
const summaryResultLimit = 5

// Search implements Searcher. The pipeline is: understand the query,
// fan out the strategy's retrieval sources, merge and deduplicate,
// apply startup and industry filtering, rerank, and optionally
// summarize. Source failures drop that source; only losing every
// source fails the request.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*types.Response, error) {
	requestID := uuid.NewString()
	start := time.Now()

	strategy := req.Strategy
	if strategy == "" {
		strategy = c.config.DefaultStrategy
	}
	if !strategy.Valid() {
		return &types.Response{
			Query:        req.Query,
			StrategyUsed: strategy,
			Error:        fmt.Sprintf("unknown strategy %q", strategy),
			Suggestions:  []string{"use one of: simple, hybrid, hierarchical, multi_representation, full_advanced"},
		}, nil
	}
	topK := clampTopK(req.TopK)

	understanding, err := c.queries.Understand(req.Query)
	if err != nil {
		return &types.Response{
			Query:        req.Query,
			StrategyUsed: strategy,
			Error:        err.Error(),
			Suggestions:  c.suggestions(types.QueryUnderstanding{}),
		}, nil
	}
	filters := retriever.MergeFilters(understanding.Filters, req.Filters)

	c.logger.Info("search started",
		"request_id", requestID,
		"strategy", string(strategy),
		"intent", string(understanding.PrimaryIntent.Type),
		"complexity", string(understanding.Complexity),
		"top_k", topK)

	raw, allFailed := c.gather(ctx, strategy, understanding, filters, topK)
	rawCount := len(raw)
	merged := types.DedupCandidates(raw)

	if len(merged) == 0 {
		resp := &types.Response{
			Query:        req.Query,
			StrategyUsed: strategy,
			Stats:        types.Stats{RawCount: rawCount},
			Suggestions:  c.suggestions(understanding),
			Success:      !allFailed,
		}
		if allFailed {
			resp.Error = "all retrieval sources failed"
		}
		return resp, nil
	}

	method := req.RerankMethod
	if method == "" {
		method = c.config.DefaultRerank
	}
	reranked := c.rerank.Rerank(ctx, types.RerankRequest{
		Query:      understanding.NormalizedQuery,
		Candidates: merged,
		Method:     method,
		TopK:       topK,
		Complexity: understanding.Complexity,
		Context:    req.ApplicantContext,
	})
	results := reranked.Candidates
	if len(results) > topK {
		results = results[:topK]
	}

	resp := &types.Response{
		Query:        req.Query,
		Results:      results,
		StrategyUsed: strategy,
		RerankMethod: reranked.Method,
		Stats:        buildStats(rawCount, results),
		Success:      true,
	}
	if len(results) == 0 {
		resp.Suggestions = c.suggestions(understanding)
	}

	if req.WithSummary && c.llm != nil && len(results) > 0 {
		c.summarize(ctx, resp, understanding, req.ApplicantContext)
	}

	c.logger.Info("search finished",
		"request_id", requestID,
		"raw", rawCount,
		"final", len(results),
		"rerank", string(reranked.Method),
		"duration", time.Since(start))
	return resp, nil
}

// gather fans out the strategy's retrieval sources and returns the
// combined candidates plus whether every source failed.
func (c *Client) gather(ctx context.Context, strategy types.Strategy, understanding types.QueryUnderstanding, filters types.Filters, topK int) ([]types.RetrievalCandidate, bool) {
	// Over-fetch so deduplication and reranking have slack.
	fetchK := topK * 2
	if fetchK > types.MaxTopK {
		fetchK = types.MaxTopK
	}

	type source struct {
		name string
		run  func(context.Context) ([]types.RetrievalCandidate, error)
	}
	var sources []source

	dense := source{"dense", func(ctx context.Context) ([]types.RetrievalCandidate, error) {
		return c.denseSource(ctx, understanding, filters, fetchK)
	}}
	hybrid := source{"hybrid", func(ctx context.Context) ([]types.RetrievalCandidate, error) {
		return c.retriever.Retrieve(ctx, understanding, filters, fetchK)
	}}
	hierarchical := source{"hierarchical", func(context.Context) ([]types.RetrievalCandidate, error) {
		return c.hierarchicalSource(understanding, fetchK)
	}}
	multiRep := source{"multi_representation", func(ctx context.Context) ([]types.RetrievalCandidate, error) {
		return c.multiRepresentationSource(ctx, understanding, filters, fetchK)
	}}

	switch strategy {
	case types.StrategySimple:
		sources = []source{dense}
	case types.StrategyHybrid:
		sources = []source{hybrid}
	case types.StrategyHierarchical:
		sources = []source{hierarchical}
	case types.StrategyMultiRepresentation:
		sources = []source{multiRep}
	default: // full advanced
		sources = []source{hybrid, hierarchical, multiRep}
	}

	var (
		mu     sync.Mutex
		all    []types.RetrievalCandidate
		failed int
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxSourceFanOut)
	for _, src := range sources {
		src := src
		group.Go(func() error {
			candidates, err := src.run(groupCtx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("retrieval source failed", "source", src.name, "error", err)
				failed++
				return nil
			}
			all = append(all, candidates...)
			return nil
		})
	}
	group.Wait()

	return all, failed == len(sources)
}

// denseSource is a single vector search over the normalized query.
func (c *Client) denseSource(ctx context.Context, understanding types.QueryUnderstanding, filters types.Filters, topK int) ([]types.RetrievalCandidate, error) {
	vector, err := c.embedder.EmbedSingle(ctx, understanding.NormalizedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := c.store.Search(ctx, vector, topK, filters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	candidates := c.resolveHits(ctx, hits, types.SourceDense)
	return c.retriever.PostFilter(candidates, understanding.Entities), nil
}

// hierarchicalSource searches all index levels with intent-adapted
// weights.
func (c *Client) hierarchicalSource(understanding types.QueryUnderstanding, topK int) ([]types.RetrievalCandidate, error) {
	if !c.hierarchy.Ready() {
		return nil, ErrNoIndex
	}
	weights := c.hierarchy.LevelWeightsForIntent(understanding.PrimaryIntent.Type)
	candidates := c.hierarchy.Search(understanding.NormalizedQuery, topK, weights)
	return c.retriever.PostFilter(candidates, understanding.Entities), nil
}

// multiRepresentationSource runs dense, plain keyword, and
// keyword-enhanced searches over the same corpus, tagging each channel.
// It fails only when every channel fails.
func (c *Client) multiRepresentationSource(ctx context.Context, understanding types.QueryUnderstanding, filters types.Filters, topK int) ([]types.RetrievalCandidate, error) {
	var out []types.RetrievalCandidate
	var lastErr error
	channels := 0
	failures := 0

	channels++
	if dense, err := c.denseSource(ctx, understanding, filters, topK); err == nil {
		out = append(out, dense...)
	} else {
		c.logger.Warn("dense channel failed", "error", err)
		failures++
		lastErr = err
	}

	keywords := c.store.KeywordStore()
	channels++
	if hits, err := keywords.Search(ctx, understanding.NormalizedQuery, filters, topK); err == nil {
		out = append(out, c.resolveHits(ctx, hits, types.SourceKeyword)...)
	} else {
		c.logger.Warn("keyword channel failed", "error", err)
		failures++
		lastErr = err
	}

	enhanced := enhancedQuery(understanding)
	if enhanced != understanding.NormalizedQuery {
		channels++
		if hits, err := keywords.Search(ctx, enhanced, filters, topK); err == nil {
			out = append(out, c.resolveHits(ctx, hits, types.SourceEnhanced)...)
		} else {
			c.logger.Warn("enhanced keyword channel failed", "error", err)
			failures++
			lastErr = err
		}
	}

	if failures == channels {
		return nil, lastErr
	}
	return c.retriever.PostFilter(types.DedupCandidates(out), understanding.Entities), nil
}

// enhancedQuery appends intent keywords and extracted entities to the
// normalized query so the keyword index sees the query's implicit
// vocabulary.
func enhancedQuery(understanding types.QueryUnderstanding) string {
	parts := []string{understanding.NormalizedQuery}
	parts = append(parts, understanding.PrimaryIntent.MatchedKeywords...)
	parts = append(parts, understanding.Entities.Industries...)
	parts = append(parts, understanding.Entities.PolicyTypes...)
	return strings.Join(parts, " ")
}

// resolveHits loads chunk content for store hits and tags the source.
func (c *Client) resolveHits(ctx context.Context, hits []store.Result, sourceTag string) []types.RetrievalCandidate {
	candidates := make([]types.RetrievalCandidate, 0, len(hits))
	for _, hit := range hits {
		chunk, err := c.store.Get(ctx, hit.ChunkID)
		if err != nil || chunk == nil {
			continue
		}
		metadata := map[string]any{"level": string(chunk.Level)}
		if chunk.SectionLabel != "" {
			metadata["section_label"] = chunk.SectionLabel
		}
		candidates = append(candidates, types.RetrievalCandidate{
			ChunkID:    hit.ChunkID,
			Content:    chunk.Content,
			Score:      hit.Score,
			PolicyID:   chunk.PolicyID,
			SourceTags: []string{sourceTag},
			Metadata:   metadata,
		})
	}
	return candidates
}

// summarize fills Response.Summary and, when applicant context is
// given, Response.Optimization. Failures leave the fields empty.
func (c *Client) summarize(ctx context.Context, resp *types.Response, understanding types.QueryUnderstanding, applicantContext string) {
	ctx, cancel := context.WithTimeout(ctx, c.config.LLMTimeout)
	defer cancel()

	top := resp.Results
	if len(top) > summaryResultLimit {
		top = top[:summaryResultLimit]
	}
	var excerpt strings.Builder
	for i, r := range top {
		fmt.Fprintf(&excerpt, "[%d] %s\n", i+1, r.Content)
	}

	summary, err := nlp.Complete(ctx, c.llm,
		"You summarize government policy excerpts for enterprise applicants. Be concrete: name amounts, conditions, and deadlines when present. Answer in the language of the question.",
		fmt.Sprintf("Question: %s\n\nRelevant policy excerpts:\n%s\nSummarize what these policies offer for this question.",
			understanding.OriginalQuery, excerpt.String()))
	if err != nil {
		c.logger.Warn("summary generation failed", "error", err)
		return
	}
	resp.Summary = summary

	if applicantContext == "" {
		return
	}
	optimization, err := nlp.Complete(ctx, c.llm,
		"You advise enterprises on policy applications. Give short, actionable suggestions grounded only in the provided excerpts.",
		fmt.Sprintf("Applicant: %s\nQuestion: %s\n\nPolicy excerpts:\n%s\nWhat should this applicant do to qualify and maximize support?",
			applicantContext, understanding.OriginalQuery, excerpt.String()))
	if err != nil {
		c.logger.Warn("optimization generation failed", "error", err)
		return
	}
	resp.Optimization = optimization
}

// suggestions proposes query reformulations for empty results.
func (c *Client) suggestions(understanding types.QueryUnderstanding) []string {
	out := []string{
		"try shorter, more concrete keywords (e.g. \"startup funding\", \"tax relief\")",
		"name the policy area you care about: funding, tax, talent, or certification",
	}
	if len(understanding.Entities.Industries) == 0 {
		out = append(out, "mention your industry, such as biomedical, software, or manufacturing")
	}
	if len(understanding.Entities.Scales) == 0 {
		out = append(out, "mention your enterprise scale, such as startup or small enterprise")
	}
	return out
}

func buildStats(rawCount int, results []types.RetrievalCandidate) types.Stats {
	stats := types.Stats{
		RawCount:   rawCount,
		FinalCount: len(results),
	}
	if len(results) == 0 {
		return stats
	}

	var sum float64
	tags := make(map[string]bool)
	for _, r := range results {
		sum += r.Score
		for _, tag := range r.SourceTags {
			tags[tag] = true
		}
	}
	stats.AvgScore = sum / float64(len(results))
	stats.SourcesUsed = make([]string, 0, len(tags))
	for tag := range tags {
		stats.SourcesUsed = append(stats.SourcesUsed, tag)
	}
	sort.Strings(stats.SourcesUsed)
	return stats
}

func clampTopK(topK int) int {
	if topK <= 0 {
		return types.DefaultTopK
	}
	if topK > types.MaxTopK {
		return types.MaxTopK
	}
	return topK
}

