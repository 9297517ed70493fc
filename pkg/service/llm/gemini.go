package llm

import (
	"context"
	"strings"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
)

// Gemini adapts a gollem LLM client to the engine's boundary.
// Sampling preferences are not applied on this backend; generation runs
// with the model defaults.
type Gemini struct {
	client gollem.LLMClient
}

var _ interfaces.LLMClient = &Gemini{}

// NewGemini creates a Gemini-backed client via Vertex AI
func NewGemini(ctx context.Context, projectID, location string, opts ...gemini.Option) (*Gemini, error) {
	client, err := gemini.New(ctx, projectID, location, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client",
			goerr.V("projectID", projectID),
			goerr.V("location", location),
		)
	}
	return &Gemini{client: client}, nil
}

// NewGeminiWithClient wraps an existing gollem client, mainly for tests
func NewGeminiWithClient(client gollem.LLMClient) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := g.client.GenerateEmbedding(ctx, model.EmbeddingDimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("want", len(texts)),
			goerr.V("got", len(embeddings)),
		)
	}

	results := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		results[i] = vec
	}

	return results, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, cfg interfaces.GenerateConfig) (string, error) {
	session, err := g.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		if isPolicyBlock(err) {
			return "", goerr.Wrap(interfaces.ErrContentBlocked, err.Error())
		}
		return "", goerr.Wrap(err, "failed to generate content")
	}

	if resp == nil || len(resp.Texts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "\n")), nil
}

// isPolicyBlock detects safety-filter rejections from the backend error
// text since the SDK does not expose a typed error for them
func isPolicyBlock(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"safety", "blocked", "prohibited_content"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
