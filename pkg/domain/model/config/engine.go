package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// RetrievalConfig tunes the vector retrieval stage.
// Candidate pools are deliberately generous so downstream filtering has
// headroom; they are deployment defaults, not invariants.
type RetrievalConfig struct {
	ChatPool     int
	SearchPool   int
	DefaultLimit int
}

// DigestConfig tunes per-entry compression and its admission control
type DigestConfig struct {
	Interval        time.Duration
	FallbackChars   int
	MaxOutputTokens int
	Temperature     float64
}

// CompactorConfig tunes conversation history roll-up.
// Trigger is the message count at which compaction starts running,
// Transcript the number of recent messages summarized, and Retain the
// sliding window kept after a successful compaction.
type CompactorConfig struct {
	Trigger         int
	Transcript      int
	Retain          int
	MaxOutputTokens int
	Temperature     float64
}

// TherapistConfig tunes the final response generation
type TherapistConfig struct {
	WordLimit       int
	MaxOutputTokens int
	Temperature     float64
}

// EngineConfig aggregates all dialogue engine tuning knobs
type EngineConfig struct {
	Retrieval RetrievalConfig
	Digest    DigestConfig
	Compactor CompactorConfig
	Therapist TherapistConfig
}

// DefaultEngineConfig returns the engine defaults
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Retrieval: RetrievalConfig{
			ChatPool:     100,
			SearchPool:   300,
			DefaultLimit: 5,
		},
		Digest: DigestConfig{
			Interval:        50 * time.Millisecond,
			FallbackChars:   300,
			MaxOutputTokens: 150,
			Temperature:     0.2,
		},
		Compactor: CompactorConfig{
			Trigger:         8,
			Transcript:      10,
			Retain:          12,
			MaxOutputTokens: 180,
			Temperature:     0.2,
		},
		Therapist: TherapistConfig{
			WordLimit:       220,
			MaxOutputTokens: 1024,
			Temperature:     0.7,
		},
	}
}

// Validate checks if the EngineConfig is consistent
func (c *EngineConfig) Validate() error {
	if c.Retrieval.ChatPool < 1 || c.Retrieval.SearchPool < 1 {
		return goerr.New("retrieval candidate pools must be positive",
			goerr.V("chat_pool", c.Retrieval.ChatPool),
			goerr.V("search_pool", c.Retrieval.SearchPool),
		)
	}
	if c.Retrieval.DefaultLimit < 1 || c.Retrieval.DefaultLimit > 10 {
		return goerr.New("retrieval default limit must be between 1 and 10",
			goerr.V("default_limit", c.Retrieval.DefaultLimit),
		)
	}
	if c.Digest.Interval < 0 {
		return goerr.New("digest interval must not be negative",
			goerr.V("interval", c.Digest.Interval),
		)
	}
	if c.Digest.FallbackChars < 1 {
		return goerr.New("digest fallback budget must be positive",
			goerr.V("fallback_chars", c.Digest.FallbackChars),
		)
	}
	if c.Compactor.Trigger < 2 {
		return goerr.New("compactor trigger must be at least 2",
			goerr.V("trigger", c.Compactor.Trigger),
		)
	}
	if c.Compactor.Retain < c.Compactor.Trigger {
		return goerr.New("compactor retain window must not be smaller than the trigger",
			goerr.V("retain", c.Compactor.Retain),
			goerr.V("trigger", c.Compactor.Trigger),
		)
	}
	if c.Compactor.Transcript < 1 {
		return goerr.New("compactor transcript window must be positive",
			goerr.V("transcript", c.Compactor.Transcript),
		)
	}
	if c.Therapist.WordLimit < 1 {
		return goerr.New("therapist word limit must be positive",
			goerr.V("word_limit", c.Therapist.WordLimit),
		)
	}
	return nil
}
