package retrieval

import (
	"context"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/m-mizutani/goerr/v2"
)

// maxQueryChars bounds the text sent to the embedding backend. Longer
// queries are truncated, not rejected.
const maxQueryChars = 4000

// Limit bounds for the number of returned matches
const (
	MinLimit = 1
	MaxLimit = 10
)

// Engine finds journal entries semantically close to a query text.
// Chat retrieval and search share the same pipeline and differ only in
// the size of the candidate pool.
type Engine struct {
	repo interfaces.Repository
	llm  interfaces.LLMClient
	cfg  config.RetrievalConfig
}

// New creates a retrieval Engine
func New(repo interfaces.Repository, llm interfaces.LLMClient, cfg config.RetrievalConfig) *Engine {
	return &Engine{
		repo: repo,
		llm:  llm,
		cfg:  cfg,
	}
}

// ClampLimit normalizes a requested match count. Zero is the JSON
// zero value for an unspecified count and falls back to the default;
// anything else clamps into [MinLimit, MaxLimit].
func (e *Engine) ClampLimit(limit int) int {
	if limit == 0 {
		return e.cfg.DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Retrieve finds entries for a dialogue turn using the chat candidate
// pool
func (e *Engine) Retrieve(ctx context.Context, query string, limit int) ([]*model.EntryMatch, error) {
	return e.find(ctx, query, e.cfg.ChatPool, limit)
}

// Search finds entries for explicit search using the wider candidate
// pool
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]*model.EntryMatch, error) {
	return e.find(ctx, query, e.cfg.SearchPool, limit)
}

func (e *Engine) find(ctx context.Context, query string, pool, limit int) ([]*model.EntryMatch, error) {
	if query == "" {
		return nil, goerr.New("query is required")
	}
	limit = e.ClampLimit(limit)

	embeddings, err := e.llm.Embed(ctx, []string{truncate(query, maxQueryChars)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding backend returned no vector")
	}

	matches, err := e.repo.Entry().FindByEmbedding(ctx, embeddings[0], pool, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search entries by embedding")
	}

	return matches, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
