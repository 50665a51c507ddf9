package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/types"
)

// unrankedPosition is assigned to candidates the model never mentions,
// pushing them behind every ranked candidate.
const unrankedPosition = 999

// rankedLinePattern matches one ranking line, e.g. "3. chunk-42".
var rankedLinePattern = regexp.MustCompile(`^\s*\d+[.、)]\s*(\S+)`)

const rankingSystemPrompt = `You rank policy document chunks by relevance to a user query.
Reply with the chunk IDs in descending relevance, one per line, numbered:
1. <chunk_id>
2. <chunk_id>
Include every chunk exactly once. No commentary.`

// LLM asks a chat model to rank candidate chunks. Candidates are sent
// in batches; each batch's ranking is parsed first as a JSON array of
// chunk IDs (repaired if malformed) and then as numbered lines. A batch
// whose response cannot be parsed keeps its input order.
type LLM struct {
	client nlp.Client
	config Config
	logger *slog.Logger
}

// NewLLM builds the model-ranked reranker. A nil client makes every
// request degrade to the input order.
func NewLLM(client nlp.Client, config Config, logger *slog.Logger) *LLM {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &LLM{client: client, config: config, logger: logger}
}

// Method implements Reranker.
func (r *LLM) Method() types.RerankMethod { return types.RerankLLM }

// Rerank implements Reranker.
func (r *LLM) Rerank(ctx context.Context, req types.RerankRequest) types.RerankResult {
	if r.client == nil {
		return fallback(req, types.RerankLLM, errors.New("llm client not configured"))
	}

	candidates := make([]types.RetrievalCandidate, len(req.Candidates))
	copy(candidates, req.Candidates)

	ranks := make(map[string]int, len(candidates))
	batches := 0
	failures := 0
	for start := 0; start < len(candidates); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		batches++

		ordered, err := r.rankBatch(ctx, req.Query, req.Context, batch)
		if err != nil {
			// Parse or transport failure: this batch keeps its
			// pre-rerank order.
			r.logger.Warn("llm rerank batch failed, keeping input order",
				"batch_start", start, "error", err)
			failures++
			for i, c := range batch {
				ranks[c.ChunkID] = start + i
			}
			continue
		}
		for i, chunkID := range ordered {
			ranks[chunkID] = start + i
		}
	}
	if failures == batches {
		return fallback(req, types.RerankLLM, errors.New("all llm ranking batches failed"))
	}

	for i := range candidates {
		rank, ok := ranks[candidates[i].ChunkID]
		if !ok {
			rank = unrankedPosition
		}
		rankScore := 1.0 / float64(rank+1)
		orig := originalScore(&candidates[i])
		candidates[i].Score = clampUnit(
			r.config.LLMRankWeight*rankScore + r.config.LLMOriginalWeight*orig)
	}
	types.SortCandidates(candidates)

	return types.RerankResult{
		Candidates: truncate(candidates, req.TopK),
		Method:     types.RerankLLM,
		Success:    true,
	}
}

// rankBatch sends one batch to the model and returns chunk IDs in the
// order the model ranked them. IDs the model invents are dropped.
func (r *LLM) rankBatch(ctx context.Context, query, callerContext string, batch []types.RetrievalCandidate) ([]string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Query: %s\n", query)
	if callerContext != "" {
		fmt.Fprintf(&prompt, "Applicant context: %s\n", callerContext)
	}
	prompt.WriteString("\nChunks:\n")
	known := make(map[string]bool, len(batch))
	for i, c := range batch {
		known[c.ChunkID] = true
		fmt.Fprintf(&prompt, "%d. %s: %s\n", i+1, c.ChunkID, snippet(c.Content, r.config.SnippetLength))
	}

	response, err := r.client.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage(rankingSystemPrompt),
		nlp.NewUserMessage(prompt.String()),
	})
	if err != nil {
		return nil, err
	}

	ordered := parseRanking(response)
	filtered := ordered[:0]
	seen := make(map[string]bool, len(ordered))
	for _, id := range ordered {
		if known[id] && !seen[id] {
			seen[id] = true
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil, types.NewParseError("no chunk ids recognized in ranking response", response)
	}
	return filtered, nil
}

// parseRanking extracts chunk IDs from a ranking response, trying a
// JSON array first and falling back to numbered lines.
func parseRanking(response string) []string {
	trimmed := strings.TrimSpace(response)

	if repaired, err := jsonrepair.JSONRepair(trimmed); err == nil {
		var ids []string
		if err := json.Unmarshal([]byte(repaired), &ids); err == nil && len(ids) > 0 {
			return ids
		}
	}

	var ids []string
	for _, line := range strings.Split(trimmed, "\n") {
		if m := rankedLinePattern.FindStringSubmatch(line); m != nil {
			ids = append(ids, strings.TrimRight(m[1], ".,;:"))
		}
	}
	return ids
}

func snippet(content string, limit int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
