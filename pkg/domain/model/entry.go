package model

import (
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector
// Gemini text-embedding-004 uses 768 dimensions
const EmbeddingDimension = 768

// Entry represents a single journal entry with its AI-derived annotations.
// Emotions, Sentiment, Topics, KeyInsights and Embedding are filled in by
// the analysis pipeline after the entry is saved; an entry without an
// embedding is excluded from retrieval.
type Entry struct {
	ID      types.EntryID
	Title   string
	Content string
	Date    time.Time

	Emotions    []string
	Sentiment   float64 // -1 (negative) .. 1 (positive)
	Topics      []string
	KeyInsights []string
	Embedding   []float32

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasEmbedding reports whether the entry is eligible for vector retrieval
func (e *Entry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}
