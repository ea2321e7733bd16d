package llm

import (
	"context"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns empty string and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GenerateWithImageFunc is called when GenerateWithImage is invoked.
	// If nil, returns empty string and nil error.
	GenerateWithImageFunc func(ctx context.Context, prompt string, systemMessage string, imageData []byte, imageMIME string, temperature float64) (string, error)

	// GenerateConversationFunc is called when GenerateConversation is invoked.
	// If nil, returns empty string and nil error.
	GenerateConversationFunc func(ctx context.Context, systemMessage string, history []Message, message string, temperature float64) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	GenerateResponseCalls     int
	GenerateWithImageCalls    int
	GenerateConversationCalls int
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model: "mock-model",
	}
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// GenerateWithImage implements LLMClient.
func (m *MockLLMClient) GenerateWithImage(ctx context.Context, prompt string, systemMessage string, imageData []byte, imageMIME string, temperature float64) (string, error) {
	m.GenerateWithImageCalls++
	if m.GenerateWithImageFunc != nil {
		return m.GenerateWithImageFunc(ctx, prompt, systemMessage, imageData, imageMIME, temperature)
	}
	return "", nil
}

// GenerateConversation implements LLMClient.
func (m *MockLLMClient) GenerateConversation(ctx context.Context, systemMessage string, history []Message, message string, temperature float64) (string, error) {
	m.GenerateConversationCalls++
	if m.GenerateConversationFunc != nil {
		return m.GenerateConversationFunc(ctx, systemMessage, history, message, temperature)
	}
	return "", nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// TotalCalls returns the number of model invocations across all methods.
func (m *MockLLMClient) TotalCalls() int {
	return m.GenerateResponseCalls + m.GenerateWithImageCalls + m.GenerateConversationCalls
}

// Ensure MockLLMClient implements LLMClient at compile time.
var _ LLMClient = (*MockLLMClient)(nil)
