package analysis

import (
	"context"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
)

// Result holds the affective analysis and embedding of one journal
// entry
type Result struct {
	Emotions    []string
	Sentiment   float64
	Topics      []string
	KeyInsights []string
	Embedding   []float32
}

// Service analyzes a journal entry: emotional annotations plus an
// embedding vector for retrieval
type Service interface {
	Analyze(ctx context.Context, entry *model.Entry) (*Result, error)
}

const systemPrompt = `You analyze private journal entries for a personal journaling app.
For each entry, identify:
1. emotions: up to 5 emotion words describing the writer's state
2. sentiment: overall sentiment from -1.0 (very negative) to 1.0 (very positive)
3. topics: up to 5 short topic labels
4. key_insights: up to 3 one-sentence observations that would help the writer reflect
Respond in the same language as the entry.`

// clampSentiment keeps sentiment within [-1, 1] regardless of what the
// model returns
func clampSentiment(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// embeddingText is what gets embedded for an entry. Title and content
// together so that short entries still carry their subject.
func embeddingText(entry *model.Entry) string {
	if entry.Title == "" {
		return entry.Content
	}
	return entry.Title + "\n\n" + entry.Content
}
