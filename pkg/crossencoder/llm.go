package crossencoder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poliscope/poliscope/pkg/nlp"
	"github.com/poliscope/poliscope/pkg/types"
)

// LLMClient scores each (query, passage) pair by running a boolean
// relevance classifier prompt, concurrently with a semaphore bound.
type LLMClient struct {
	client    nlp.Client
	semaphore chan struct{}
}

var _ Client = (*LLMClient)(nil)

// NewLLMClient creates an LLM-judged cross-encoder.
func NewLLMClient(llmClient nlp.Client, config Config) *LLMClient {
	config.applyDefaults()
	return &LLMClient{
		client:    llmClient,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}
}

// Rank scores the passages against the query. A passage whose scoring
// call fails gets a neutral 0.5 rather than failing the batch; only a
// failure of every call returns an error.
func (c *LLMClient) Rank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(passages))
	errs := make([]error, len(passages))
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			scores[idx], errs[idx] = c.scorePassage(ctx, query, p)
		}(i, passage)
	}
	wg.Wait()

	failures := 0
	for i, err := range errs {
		if err != nil {
			failures++
			scores[i] = 0.5
		}
	}
	if failures == len(passages) {
		return nil, types.NewExternalServiceError("cross_encoder", errs[0])
	}
	return scores, nil
}

// scorePassage runs the boolean classifier prompt for one pair. "True"
// maps to 0.8, "False" to 0.2, anything else to a neutral 0.5.
func (c *LLMClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	messages := []nlp.Message{
		nlp.NewSystemMessage("You are an expert tasked with determining whether the passage is relevant to the query"),
		nlp.NewUserMessage(fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query)),
	}

	response, err := c.client.Chat(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}

	switch firstWord(response) {
	case "true":
		return 0.8, nil
	case "false":
		return 0.2, nil
	default:
		return 0.5, nil
	}
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;!\"'")
}
