// Package nlp provides language model clients used for reranking and
// summary generation.
//
// The base Client interface is a chat completion call. Decorators add
// retry with exponential backoff (RetryClient) and circuit breaking
// (CircuitBreakerClient); compose them as needed:
//
//	client := nlp.NewCircuitBreakerClient(
//	    nlp.NewRetryClient(nlp.NewOpenAIClient(cfg), nil),
//	    nlp.DefaultBreakerConfig(), logger)
package nlp

import (
	"context"
)

// Role identifies a chat message author.
type Role string

const (
	// RoleSystem represents a system message.
	RoleSystem Role = "system"
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for language model operations.
type Client interface {
	// Chat sends a chat completion request and returns the response text.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// Complete is a convenience wrapper for the common system+user prompt
// pair.
func Complete(ctx context.Context, client Client, systemPrompt, userPrompt string) (string, error) {
	return client.Chat(ctx, []Message{
		NewSystemMessage(systemPrompt),
		NewUserMessage(userPrompt),
	})
}
