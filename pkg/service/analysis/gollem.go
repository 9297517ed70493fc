package analysis

import (
	"context"
	"encoding/json"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// client implements Service on top of a gollem LLM client with a JSON
// response schema
type client struct {
	llmClient gollem.LLMClient
}

// New creates an analysis service with the provided gollem client
func New(llmClient gollem.LLMClient) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &client{llmClient: llmClient}, nil
}

type llmAnalysis struct {
	Emotions    []string `json:"emotions"`
	Sentiment   float64  `json:"sentiment"`
	Topics      []string `json:"topics"`
	KeyInsights []string `json:"key_insights"`
}

func (c *client) Analyze(ctx context.Context, entry *model.Entry) (*Result, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(entry.Content))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to analyze entry", goerr.V("entryID", entry.ID))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("no analysis returned", goerr.V("entryID", entry.ID))
	}

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse analysis response",
			goerr.V("response", resp.Texts[0]),
		)
	}

	embedding, err := c.generateEmbedding(ctx, embeddingText(entry))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate entry embedding",
			goerr.V("entryID", entry.ID),
		)
	}

	return &Result{
		Emotions:    parsed.Emotions,
		Sentiment:   clampSentiment(parsed.Sentiment),
		Topics:      parsed.Topics,
		KeyInsights: parsed.KeyInsights,
		Embedding:   embedding,
	}, nil
}

func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "EntryAnalysis",
		Description: "Affective analysis of one journal entry",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"emotions": {
				Type:        gollem.TypeArray,
				Description: "Emotion words describing the writer's state",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
			"sentiment": {
				Type:        gollem.TypeNumber,
				Description: "Overall sentiment from -1.0 to 1.0",
				Required:    true,
			},
			"topics": {
				Type:        gollem.TypeArray,
				Description: "Short topic labels",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
			"key_insights": {
				Type:        gollem.TypeArray,
				Description: "One-sentence observations for reflection",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
		},
	}
}

func (c *client) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}
