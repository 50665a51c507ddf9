package nlp

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/poliscope/poliscope/pkg/types"
)

// Defaults for the OpenAI-compatible chat client.
const (
	DefaultModel       = openai.GPT4oMini
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 2048
)

// Config holds settings for the OpenAI-compatible chat client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// OpenAIClient implements Client against any OpenAI-compatible chat
// completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a chat client. BaseURL may point at any
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

// Chat sends a chat completion request and returns the response text.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", NewRateLimitError(apiErr.Message)
		}
		return "", types.NewExternalServiceError("llm", err)
	}
	if len(resp.Choices) == 0 {
		return "", NewEmptyResponseError("chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", NewEmptyResponseError("chat completion returned empty content")
	}
	return content, nil
}
