// File: internal/formarchitect/architect.go
//
// Package formarchitect turns natural-language form descriptions into
// validated declarative form schemas via the form_architect agent.
package formarchitect

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/llmutil"
)

// generator is the slice of the pipeline the architect drives. Satisfied by
// *pipeline.Pipeline.
type generator interface {
	Generate(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error)
}

// Result is a built form schema plus its provenance.
type Result struct {
	Schema schemas.FormSchema
	// Degraded marks a schema served from the local fallback after a provider
	// failure.
	Degraded bool
}

// Architect builds form schemas from plain-language descriptions.
type Architect struct {
	pipe   generator
	logger *zap.Logger
}

// New creates an Architect over the pipeline.
func New(pipe generator, logger *zap.Logger) *Architect {
	return &Architect{pipe: pipe, logger: logger.Named("formarchitect")}
}

// Build asks the form_architect agent for a schema matching the description
// and validates the reply. A provider outage yields the canned registration
// schema marked degraded; a live reply that cannot be parsed or fails
// validation is a malformed-response error.
func (a *Architect) Build(ctx context.Context, description string) (Result, error) {
	if strings.TrimSpace(description) == "" {
		return Result{}, schemas.NewGenerationError(
			schemas.ErrPreconditionFailed, schemas.AgentFormArchitect,
			fmt.Errorf("form description must not be empty"))
	}

	prompt := fmt.Sprintf("Generate a form schema for: %q", strings.TrimSpace(description))
	generated, err := a.pipe.Generate(ctx, schemas.AgentFormArchitect, prompt, "", false)
	if err != nil {
		return Result{}, err
	}

	parsed, err := llmutil.ParseJSONResponse[schemas.FormSchema](generated.Text)
	if err != nil {
		return Result{}, schemas.NewGenerationError(
			schemas.ErrMalformedResponse, schemas.AgentFormArchitect,
			fmt.Errorf("parsing form schema: %w", err))
	}
	if err := parsed.Validate(); err != nil {
		return Result{}, schemas.NewGenerationError(
			schemas.ErrMalformedResponse, schemas.AgentFormArchitect,
			fmt.Errorf("validating form schema: %w", err))
	}

	if generated.Degraded {
		a.logger.Warn("Serving fallback form schema",
			zap.String("title", parsed.Title))
	}
	return Result{Schema: *parsed, Degraded: generated.Degraded}, nil
}
