// File: internal/pipeline/generator.go
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/fallback"
	"github.com/nexuslabs/nexus-cli/internal/persona"
)

// Generate produces a response for the given agent. The persona registry
// supplies the system instruction, the tier policy picks the model, and the
// provider is called exactly once; on provider failure the deterministic
// fallback table supplies the text and the result is marked degraded.
//
// Errors are returned only for preconditions (empty prompt) and caller
// cancellation. Provider unavailability is never an error here.
func (p *Pipeline) Generate(ctx context.Context, agent schemas.AgentID, prompt, contextText string, highReasoning bool) (schemas.GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return schemas.GenerationResult{}, schemas.NewGenerationError(
			schemas.ErrPreconditionFailed, agent, fmt.Errorf("prompt must not be empty"))
	}

	pers := persona.Resolve(agent)
	tier := persona.SelectTier(agent, highReasoning)

	req := schemas.GenerationRequest{
		SystemPrompt: assembleSystemInstruction(pers.Instruction, contextText),
		UserPrompt:   prompt,
		Tier:         tier,
		Options: schemas.GenerationOptions{
			// The form architect must emit machine-parseable JSON.
			ForceJSONFormat: agent == schemas.AgentFormArchitect,
		},
	}

	text, err := p.llm.Generate(ctx, req)
	if err != nil {
		if canceled(ctx, err) {
			return schemas.GenerationResult{}, ctx.Err()
		}
		p.logger.Warn("Provider unavailable, serving canned response",
			zap.String("agent", string(agent)),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		return schemas.GenerationResult{
			Agent:    agent,
			Tier:     tier,
			Text:     fallback.Lookup(agent, prompt),
			Degraded: true,
		}, nil
	}

	return schemas.GenerationResult{
		Agent: agent,
		Tier:  tier,
		Text:  text,
	}, nil
}
