// File: internal/llmclient/image_client.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/config"
)

// GeminiImageClient implements schemas.ImageClient against the Gemini
// generateContent REST API using the image response modality. Successful
// calls yield an inline base64 data URI.
type GeminiImageClient struct {
	apiKey         string
	endpoint       string
	httpClient     *http.Client
	logger         *zap.Logger
	config         config.LLMModelConfig
	backoffFactory func() backoff.BackOff
}

// NewGeminiImageClient initializes the image generation client.
func NewGeminiImageClient(cfg config.LLMModelConfig, logger *zap.Logger) (*GeminiImageClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint(cfg.Model)
	}

	maxRetries := cfg.MaxRetries
	return &GeminiImageClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.gemini_image"),
		backoffFactory: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = 30 * time.Second
			return backoff.WithMaxRetries(b, maxRetries)
		},
	}, nil
}

// GenerateImage renders the prompt and returns a data URI
// (data:<mime>;base64,<payload>).
func (c *GeminiImageClient) GenerateImage(ctx context.Context, req schemas.ImageRequest) (string, error) {
	payload := geminiRequestPayload{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	if req.AspectRatio != "" {
		payload.GenerationConfig.ImageConfig = &geminiImageConfig{AspectRatio: req.AspectRatio}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	var dataURI string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.apiKey)

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(start)
		if err != nil {
			c.logger.Warn("Network error during image request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			c.logger.Error("Gemini image API returned error status", zap.Int("status", resp.StatusCode), zap.String("response", string(respBody)))
			err := fmt.Errorf("gemini image API error: status %d", resp.StatusCode)
			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
				return err
			default:
				return backoff.Permanent(err)
			}
		}

		var respPayload geminiResponsePayload
		if err := json.Unmarshal(respBody, &respPayload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}

		uri := firstInlineImage(respPayload)
		if uri == "" {
			return backoff.Permanent(fmt.Errorf("gemini image API returned no image data"))
		}

		c.logger.Info("Image generation complete",
			zap.String("model", c.config.Model),
			zap.Duration("duration", duration),
			zap.String("aspect_ratio", req.AspectRatio),
		)
		dataURI = uri
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(c.backoffFactory(), ctx)); err != nil {
		return "", err
	}
	return dataURI, nil
}

// Close releases client resources.
func (c *GeminiImageClient) Close() error { return nil }

// firstInlineImage finds the first inline image part across all candidates
// and formats it as a data URI.
func firstInlineImage(payload geminiResponsePayload) string {
	for _, candidate := range payload.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data)
			}
		}
	}
	return ""
}
