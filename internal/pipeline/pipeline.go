// File: internal/pipeline/pipeline.go
//
// Package pipeline implements the agent response pipeline: persona-driven
// text generation with deterministic local fallbacks, image generation with
// placeholder substitution, and orchestration routing of raw user utterances
// onto agents. The pipeline never surfaces provider outages as errors;
// degraded results are marked, not hidden.
package pipeline

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/config"
)

// outputRules is appended to every assembled system instruction.
const outputRules = "## Output rules\n" +
	"- Format responses as markdown.\n" +
	"- Be concise; lead with the answer.\n" +
	"- Include JSON where the persona calls for structured data."

// Pipeline coordinates text generation, image generation, and utterance
// routing over the configured provider clients. Safe for concurrent use.
type Pipeline struct {
	llm    schemas.LLMClient
	image  schemas.ImageClient
	logger *zap.Logger

	// routeCache memoizes successful utterance classifications; degraded
	// routings are never cached so a provider outage cannot pin stale
	// verdicts. Nil when disabled.
	routeCache *lru.Cache[string, schemas.Routing]
	routeGroup singleflight.Group
}

// New assembles a pipeline from the provider clients.
func New(cfg config.PipelineConfig, llm schemas.LLMClient, image schemas.ImageClient, logger *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{
		llm:    llm,
		image:  image,
		logger: logger.Named("pipeline"),
	}

	if cfg.RouterCacheSize > 0 {
		cache, err := lru.New[string, schemas.Routing](cfg.RouterCacheSize)
		if err != nil {
			return nil, err
		}
		p.routeCache = cache
	}
	return p, nil
}

// Close releases the underlying provider clients.
func (p *Pipeline) Close() error {
	var firstErr error
	if p.llm != nil {
		if err := p.llm.Close(); err != nil {
			firstErr = err
		}
	}
	if p.image != nil {
		if err := p.image.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// assembleSystemInstruction builds the full system prompt: persona
// instruction, injected caller context, and the fixed output rules.
func assembleSystemInstruction(instruction, contextText string) string {
	var b strings.Builder
	b.WriteString(instruction)
	if trimmed := strings.TrimSpace(contextText); trimmed != "" {
		b.WriteString("\n\n## Context\n")
		b.WriteString(trimmed)
	}
	b.WriteString("\n\n")
	b.WriteString(outputRules)
	return b.String()
}

// canceled reports whether err is the caller's own context ending. Those are
// propagated rather than masked with a fallback: the work was abandoned, not
// degraded.
func canceled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
