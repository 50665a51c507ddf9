package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/poliscope/poliscope/pkg/types"
)

// OpenAI embedding defaults.
const (
	DefaultModel      = string(openai.SmallEmbedding3)
	DefaultDimensions = 1536
	DefaultBatchSize  = 100
)

// Config holds settings for the OpenAI-compatible embedding client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// OpenAIClient implements Client against any OpenAI-compatible
// embeddings endpoint.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an embedding client. BaseURL may point at any
// OpenAI-compatible server.
func NewOpenAIClient(config Config) *OpenAIClient {
	config.applyDefaults()
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates unit-length embeddings for the given texts, batching
// requests per the configured batch size.
func (e *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.config.Model),
		})
		if err != nil {
			return nil, types.NewExternalServiceError("embedder", err)
		}
		if len(resp.Data) != end-start {
			return nil, types.NewExternalServiceError("embedder",
				fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data)))
		}
		for _, item := range resp.Data {
			out = append(out, Normalize(item.Embedding))
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, types.NewExternalServiceError("embedder", fmt.Errorf("no embeddings returned"))
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *OpenAIClient) Dimensions() int {
	return e.config.Dimensions
}
