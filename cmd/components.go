// File: cmd/components.go
package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/internal/config"
	"github.com/nexuslabs/nexus-cli/internal/llmclient"
	"github.com/nexuslabs/nexus-cli/internal/observability"
	"github.com/nexuslabs/nexus-cli/internal/pipeline"
)

// components holds the initialized services shared by the subcommands.
type components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline
}

// Shutdown releases the provider clients.
func (c *components) Shutdown() {
	if c.Pipeline != nil {
		if err := c.Pipeline.Close(); err != nil {
			c.Logger.Warn("Error closing pipeline", zap.Error(err))
		}
	}
}

// initializeComponents handles dependency injection for the subcommands.
func initializeComponents() (*components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := observability.GetLogger()

	llm, err := llmclient.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	image, err := llmclient.NewImageClient(cfg, logger)
	if err != nil {
		llm.Close()
		return nil, fmt.Errorf("failed to initialize image client: %w", err)
	}

	pipe, err := pipeline.New(cfg.Pipeline, llm, image, logger)
	if err != nil {
		llm.Close()
		image.Close()
		return nil, fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	return &components{Config: cfg, Logger: logger, Pipeline: pipe}, nil
}
