package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// textClient implements Service on top of the plain generation
// boundary for backends without a structured-output session
type textClient struct {
	llm interfaces.LLMClient
}

// NewText creates an analysis service that asks for JSON in the prompt
// and parses the response text
func NewText(llm interfaces.LLMClient) (Service, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &textClient{llm: llm}, nil
}

func (c *textClient) Analyze(ctx context.Context, entry *model.Entry) (*Result, error) {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nRespond with a single JSON object with keys emotions, sentiment, topics, key_insights and no other text.\n\n## Entry\n\n")
	sb.WriteString(entry.Content)

	text, err := c.llm.Generate(ctx, sb.String(), interfaces.GenerateConfig{
		Temperature: 0.2,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to analyze entry", goerr.V("entryID", entry.ID))
	}

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(stripFence(text)), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse analysis response", goerr.V("response", text))
	}

	embeddings, err := c.llm.Embed(ctx, []string{embeddingText(entry)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate entry embedding",
			goerr.V("entryID", entry.ID),
		)
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned", goerr.V("entryID", entry.ID))
	}

	return &Result{
		Emotions:    parsed.Emotions,
		Sentiment:   clampSentiment(parsed.Sentiment),
		Topics:      parsed.Topics,
		KeyInsights: parsed.KeyInsights,
		Embedding:   embeddings[0],
	}, nil
}

// stripFence removes a markdown code fence that chat models like to
// wrap JSON in
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
