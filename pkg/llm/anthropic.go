package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/logging"
)

const anthropicMaxTokens = 4000

// AnthropicClient provides access to the Anthropic messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates a new Anthropic-backed LLM client.
func NewAnthropicClient(apiKey, model string, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("llm-anthropic"),
	}, nil
}

// GenerateResponse generates a completion for a single prompt.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	messages := []anthropic.Message{
		{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
			{Type: "text", Text: &prompt},
		}},
	}

	return c.complete(ctx, systemMessage, messages, temperature)
}

// GenerateWithImage generates a completion for a prompt plus an inline image,
// sent as a base64 image content block.
func (c *AnthropicClient) GenerateWithImage(ctx context.Context, prompt string, systemMessage string, imageData []byte, imageMIME string, temperature float64) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("image payload is empty")
	}
	if imageMIME == "" {
		imageMIME = "image/jpeg"
	}

	messages := []anthropic.Message{
		{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
			{
				Type: "image",
				Source: &anthropic.MessageContentSource{
					Type:      "base64",
					MediaType: imageMIME,
					Data:      base64.StdEncoding.EncodeToString(imageData),
				},
			},
			{Type: "text", Text: &prompt},
		}},
	}

	return c.complete(ctx, systemMessage, messages, temperature)
}

// GenerateConversation continues a conversation seeded with prior turns.
func (c *AnthropicClient) GenerateConversation(ctx context.Context, systemMessage string, history []Message, message string, temperature float64) (string, error) {
	messages := make([]anthropic.Message, 0, len(history)+1)
	for i := range history {
		turn := history[i]
		role := anthropic.RoleUser
		if turn.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{{Type: "text", Text: &history[i].Content}},
		})
	}
	messages = append(messages, anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: []anthropic.MessageContent{{Type: "text", Text: &message}},
	})

	return c.complete(ctx, systemMessage, messages, temperature)
}

func (c *AnthropicClient) complete(ctx context.Context, systemMessage string, messages []anthropic.Message, temperature float64) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)),
		zap.Float64("temperature", temperature))

	temp := float32(temperature)
	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   anthropicMaxTokens,
		System:      systemMessage,
		Temperature: &temp,
		Messages:    messages,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return "", ClassifyError(err)
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return extractText(resp), nil
}

// extractText returns the first text block of a messages response.
func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// Ensure AnthropicClient implements LLMClient at compile time.
var _ LLMClient = (*AnthropicClient)(nil)
