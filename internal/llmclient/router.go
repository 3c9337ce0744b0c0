// File: internal/llmclient/router.go
package llmclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/config"
)

// ModelRouter implements schemas.LLMClient and dispatches each request to the
// client configured for its tier. All outbound traffic in the process funnels
// through the router, so this is also where the shared rate limiter and the
// circuit breaker live: individual sessions are single-flight by design, but
// nothing else bounds concurrent sessions.
type ModelRouter struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// NewModelRouter creates a router with the specified clients for each tier.
func NewModelRouter(cfg config.PipelineConfig, logger *zap.Logger, fastClient, powerfulClient schemas.LLMClient) (*ModelRouter, error) {
	if fastClient == nil || powerfulClient == nil {
		return nil, fmt.Errorf("both fast and powerful tier clients must be provided")
	}

	r := &ModelRouter{
		logger: logger.Named("model_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.BreakerMaxFailures > 0 {
		maxFailures := cfg.BreakerMaxFailures
		r.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "llm_provider",
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				r.logger.Warn("Provider circuit breaker state change",
					zap.String("from", from.String()), zap.String("to", to.String()))
			},
		})
	}

	return r, nil
}

// Generate selects the appropriate client based on the request's tier and
// executes the call under the shared limiter and breaker.
func (r *ModelRouter) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierFast
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait aborted: %w", err)
		}
	}

	r.logger.Debug("Routing LLM request", zap.String("tier", string(tier)))

	if r.breaker == nil {
		return client.Generate(ctx, req)
	}

	text, err := r.breaker.Execute(func() (string, error) {
		return client.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("provider circuit breaker open: %w", err)
		}
		return "", err
	}
	return text, nil
}

// Close closes every tier client, returning the first error encountered.
func (r *ModelRouter) Close() error {
	var firstErr error
	for _, client := range r.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
