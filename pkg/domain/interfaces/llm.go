package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// GenerateConfig carries sampling preferences for one generation call
type GenerateConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

// Sentinel errors shared by LLM client implementations
var (
	// ErrContentBlocked signals that a safety filter rejected the prompt
	// or the generated response
	ErrContentBlocked = goerr.New("generation blocked by content policy")
)

// LLMClient is the boundary to the external embedding and generation
// services. Both are treated as opaque: text in, vector or text out.
type LLMClient interface {
	// Embed converts texts to embedding vectors of
	// model.EmbeddingDimension dimensions, one vector per input text
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Generate produces text for a single prompt. Implementations wrap
	// safety-filter rejections with ErrContentBlocked so callers can
	// distinguish them via errors.Is. An empty result with a nil error
	// means the model returned no usable text.
	Generate(ctx context.Context, prompt string, cfg GenerateConfig) (string, error)
}
