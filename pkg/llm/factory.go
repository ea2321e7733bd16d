package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/config"
)

// NewFromConfig creates the LLM client selected by server configuration.
// Returns LLMClient interface to enable dependency injection of mocks.
func NewFromConfig(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
	case "openai":
		return NewClient(&Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
