// Package llm provides LLM client functionality for menu analysis.
package llm

import (
	"context"
)

// Message roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a completion for a single prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GenerateWithImage generates a completion for a prompt plus an inline image.
	GenerateWithImage(ctx context.Context, prompt string, systemMessage string, imageData []byte, imageMIME string, temperature float64) (string, error)

	// GenerateConversation continues a conversation: history seeds the
	// exchange and message is the new active turn.
	GenerateConversation(ctx context.Context, systemMessage string, history []Message, message string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}
