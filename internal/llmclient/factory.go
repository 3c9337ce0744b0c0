// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/config"
)

// NewClient builds the tier-routing text client for the configured provider.
func NewClient(cfg *config.Config, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		fast, err := NewGeminiClient(cfg.LLM.Fast, logger)
		if err != nil {
			return nil, fmt.Errorf("fast tier client: %w", err)
		}
		powerful, err := NewGeminiClient(cfg.LLM.Powerful, logger)
		if err != nil {
			return nil, fmt.Errorf("powerful tier client: %w", err)
		}
		router, err := NewModelRouter(cfg.Pipeline, logger, fast, powerful)
		if err != nil {
			return nil, err
		}
		return router, nil
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]",
			cfg.LLM.Provider, config.ProviderGemini)
	}
}

// NewImageClient builds the image client for the configured provider.
func NewImageClient(cfg *config.Config, logger *zap.Logger) (schemas.ImageClient, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiImageClient(cfg.LLM.Image, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]",
			cfg.LLM.Provider, config.ProviderGemini)
	}
}
