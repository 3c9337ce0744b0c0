package schemas

import "context"

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced reasoning capability.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, cheaper model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable model with an extended reasoning budget.
)

// GenerationOptions provides detailed parameters to control the text
// generation process of the LLM, such as creativity (temperature) and output
// format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	ThinkingBudget  int     `json:"thinking_budget"`   // Token budget for extended reasoning. Zero means provider default.
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query or input from the user.
	Tier         ModelTier         `json:"tier"`          // The desired model tier (fast or powerful).
	Options      GenerationOptions `json:"options"`       // Advanced generation parameters.
}

// ImageRequest describes a single image generation call.
type ImageRequest struct {
	Prompt      string `json:"prompt"`       // The visual description to render.
	AspectRatio string `json:"aspect_ratio"` // Provider aspect ratio hint, e.g. "1:1" or "16:9".
}

// LLMClient defines a standard interface for interacting with a Large
// Language Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// ImageClient defines the interface for an image generation backend. A
// successful call returns an inline data URI suitable for direct embedding.
type ImageClient interface {
	// GenerateImage renders the prompt and returns a base64 data URI.
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// GenerationResult is the outcome of a pipeline text generation. Text is
// always non-empty for a valid request: when the provider is unavailable the
// pipeline substitutes a deterministic local fallback and marks the result as
// degraded so callers can visibly flag it instead of faking success.
type GenerationResult struct {
	Agent    AgentID   `json:"agent"`    // The agent whose persona produced (or would have produced) the text.
	Tier     ModelTier `json:"tier"`     // The tier the request was routed to.
	Text     string    `json:"text"`     // Markdown text, or a JSON-encoded string for structured agents.
	Degraded bool      `json:"degraded"` // True when Text is a local fallback rather than live provider output.
}

// ImageResult is the outcome of an image generation. URL is always non-empty
// for a non-empty prompt: on provider failure it holds a deterministic
// placeholder URL derived from the prompt, with Degraded set.
type ImageResult struct {
	URL      string `json:"url"`
	Degraded bool   `json:"degraded"`
}

// Routing is the orchestration router's verdict for a raw user utterance: the
// agent best suited to handle it and a refined version of the prompt to hand
// that agent. On any classification failure Agent is AgentRouter and
// RefinedPrompt is the original utterance, unchanged.
type Routing struct {
	Agent         AgentID `json:"agent"`
	RefinedPrompt string  `json:"refinedPrompt"`
}
