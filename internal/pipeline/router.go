// File: internal/pipeline/router.go
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/llmutil"
	"github.com/nexuslabs/nexus-cli/internal/persona"
)

// routeInstruction builds the classification prompt enumerating every known
// agent identifier.
func routeInstruction() string {
	ids := schemas.KnownAgents()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return "You are the dispatcher for a console of specialist AI agents. " +
		"Classify the user's message onto exactly one agent from this list: " +
		strings.Join(names, ", ") + ". " +
		"Also rewrite the message into a clear, self-contained prompt for that agent. " +
		"Respond with ONLY a JSON object: {\"agent\": string, \"refinedPrompt\": string}. " +
		"If no specialist fits, use \"router\" and pass the message through unchanged."
}

// Route classifies a raw user utterance onto one of the known agents and
// produces a refined prompt for it. Any failure (provider outage, malformed
// JSON, or an agent identifier outside the known set) yields the identity
// routing {router, utterance}. Successful verdicts are memoized in a bounded
// LRU and concurrent identical lookups are collapsed.
func (p *Pipeline) Route(ctx context.Context, utterance string) (schemas.Routing, error) {
	identity := schemas.Routing{Agent: schemas.AgentRouter, RefinedPrompt: utterance}

	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return identity, nil
	}

	if p.routeCache != nil {
		if cached, ok := p.routeCache.Get(trimmed); ok {
			return cached, nil
		}
	}

	verdict, err, _ := p.routeGroup.Do(trimmed, func() (interface{}, error) {
		return p.classify(ctx, trimmed, utterance), nil
	})
	if err != nil {
		return identity, nil
	}
	return verdict.(schemas.Routing), nil
}

// classify performs the provider call and validation behind Route.
func (p *Pipeline) classify(ctx context.Context, key, utterance string) schemas.Routing {
	identity := schemas.Routing{Agent: schemas.AgentRouter, RefinedPrompt: utterance}

	req := schemas.GenerationRequest{
		SystemPrompt: routeInstruction(),
		UserPrompt:   utterance,
		Tier:         persona.SelectTier(schemas.AgentRouter, false),
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
		},
	}

	raw, err := p.llm.Generate(ctx, req)
	if err != nil {
		p.logger.Warn("Routing classification unavailable, using identity routing", zap.Error(err))
		return identity
	}

	parsed, err := llmutil.ParseJSONResponse[schemas.Routing](raw)
	if err != nil {
		p.logger.Warn("Routing classification malformed, using identity routing",
			zap.Error(fmt.Errorf("%w", err)))
		return identity
	}

	// The model is told the valid set but is not trusted to respect it.
	if !schemas.IsKnownAgent(parsed.Agent) {
		p.logger.Warn("Routing classification named an unknown agent, using identity routing",
			zap.String("agent", string(parsed.Agent)))
		return identity
	}
	if strings.TrimSpace(parsed.RefinedPrompt) == "" {
		parsed.RefinedPrompt = utterance
	}

	if p.routeCache != nil {
		p.routeCache.Add(key, *parsed)
	}
	return *parsed
}
