// File: internal/pipeline/image.go
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuslabs/nexus-cli/api/schemas"
	"github.com/nexuslabs/nexus-cli/internal/llmutil"
)

// placeholderBase is the deterministic placeholder image service used when
// the provider cannot render. The prompt slice in the URL keeps the
// substitution recognizable instead of silently unrelated.
const placeholderBase = "https://placehold.co"

// placeholderDimensions maps the supported aspect ratios onto placeholder
// canvas sizes.
var placeholderDimensions = map[string]string{
	"1:1":  "600x600",
	"16:9": "800x450",
	"9:16": "450x800",
	"4:3":  "640x480",
	"3:4":  "480x640",
}

// GenerateImage renders the prompt through the image provider. On success the
// result carries an inline data URI; on provider failure it carries a
// deterministic placeholder URL derived from the prompt and is marked
// degraded. The URL is never empty for a non-empty prompt.
func (p *Pipeline) GenerateImage(ctx context.Context, prompt, aspectRatio string) (schemas.ImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return schemas.ImageResult{}, schemas.NewGenerationError(
			schemas.ErrPreconditionFailed, schemas.AgentDesign, fmt.Errorf("image prompt must not be empty"))
	}

	uri, err := p.image.GenerateImage(ctx, schemas.ImageRequest{
		Prompt:      prompt,
		AspectRatio: aspectRatio,
	})
	if err != nil {
		if canceled(ctx, err) {
			return schemas.ImageResult{}, ctx.Err()
		}
		p.logger.Warn("Image provider unavailable, serving placeholder",
			zap.String("aspect_ratio", aspectRatio),
			zap.Error(err),
		)
		return schemas.ImageResult{
			URL:      PlaceholderURL(prompt, aspectRatio),
			Degraded: true,
		}, nil
	}

	return schemas.ImageResult{URL: uri}, nil
}

// PlaceholderURL builds the deterministic stand-in image URL for a prompt.
func PlaceholderURL(prompt, aspectRatio string) string {
	dims, ok := placeholderDimensions[aspectRatio]
	if !ok {
		dims = "600x400"
	}
	text := url.QueryEscape(llmutil.Truncate(strings.TrimSpace(prompt), 40))
	return fmt.Sprintf("%s/%s?text=%s", placeholderBase, dims, text)
}
