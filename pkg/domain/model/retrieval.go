package model

import (
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/types"
)

// EntryMatch pairs a retrieved entry with its similarity score.
// Produced by the repository's vector search and consumed within one
// request; never stored.
type EntryMatch struct {
	Entry *Entry
	Score float64
}

// RetrievalResult is the caller-facing provenance of one retrieved entry.
// Only projected fields are exposed; embedding vectors never leave the
// repository layer.
type RetrievalResult struct {
	EntryID types.EntryID `json:"id"`
	Title   string        `json:"title"`
	Date    time.Time     `json:"date"`
	Score   float64       `json:"score"`
}

// Digest is a bounded compression of one entry's content for prompt
// context. Fallback marks digests produced by truncation after a failed
// generation call.
type Digest struct {
	EntryID  types.EntryID
	Title    string
	Text     string
	Fallback bool
}
