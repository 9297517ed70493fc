package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/utils/async"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// CreateEntryInput is a new journal entry draft
type CreateEntryInput struct {
	Title   string
	Content string
	Date    time.Time
}

// CreateEntry stores a new entry and kicks off analysis in the
// background. The entry is readable immediately; annotations and the
// embedding arrive once analysis completes, and until then the entry
// is not retrievable by similarity.
func (uc *UseCases) CreateEntry(ctx context.Context, input CreateEntryInput) (*model.Entry, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "entry content is required")
	}

	entry := &model.Entry{
		Title:   input.Title,
		Content: input.Content,
		Date:    input.Date,
	}

	created, err := uc.repo.Entry().Create(ctx, entry)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create entry")
	}

	uc.analyzeAsync(ctx, created)
	return created, nil
}

// GetEntry fetches one entry
func (uc *UseCases) GetEntry(ctx context.Context, id types.EntryID) (*model.Entry, error) {
	entry, err := uc.repo.Entry().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get entry", goerr.V("entryID", id))
	}
	if entry == nil {
		return nil, goerr.Wrap(ErrEntryNotFound, "entry does not exist", goerr.V("entryID", id))
	}
	return entry, nil
}

// ListEntries returns all entries, newest first
func (uc *UseCases) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	entries, err := uc.repo.Entry().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list entries")
	}
	return entries, nil
}

// UpdateEntryInput carries the editable fields of an entry
type UpdateEntryInput struct {
	ID      types.EntryID
	Title   string
	Content string
	Date    time.Time
}

// UpdateEntry rewrites an entry's text and re-analyzes it, since the
// old annotations and embedding no longer describe the new content
func (uc *UseCases) UpdateEntry(ctx context.Context, input UpdateEntryInput) (*model.Entry, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "entry content is required")
	}

	entry, err := uc.GetEntry(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	entry.Title = input.Title
	entry.Content = input.Content
	if !input.Date.IsZero() {
		entry.Date = input.Date
	}
	entry.Emotions = nil
	entry.Sentiment = 0
	entry.Topics = nil
	entry.KeyInsights = nil
	entry.Embedding = nil

	if err := uc.repo.Entry().Update(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to update entry", goerr.V("entryID", entry.ID))
	}

	uc.analyzeAsync(ctx, entry)
	return entry, nil
}

// DeleteEntry removes an entry
func (uc *UseCases) DeleteEntry(ctx context.Context, id types.EntryID) error {
	if _, err := uc.GetEntry(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Entry().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete entry", goerr.V("entryID", id))
	}
	return nil
}

// SearchEntries finds entries semantically related to the query using
// the wide search pool
func (uc *UseCases) SearchEntries(ctx context.Context, query string, limit int) ([]*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "search query is required")
	}

	matches, err := uc.retrieval.Search(ctx, query, limit)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, err.Error())
	}

	results := make([]*model.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, &model.RetrievalResult{
			EntryID: m.Entry.ID,
			Title:   m.Entry.Title,
			Date:    m.Entry.Date,
			Score:   m.Score,
		})
	}
	return results, nil
}

// analyzeAsync annotates and embeds the entry in the background. A
// failed analysis leaves the entry stored but unretrievable, which is
// recoverable by editing the entry.
func (uc *UseCases) analyzeAsync(ctx context.Context, entry *model.Entry) {
	if uc.analyzer == nil {
		return
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := uc.analyzeEntry(ctx, entry.ID); err != nil {
			return goerr.Wrap(err, "failed to analyze entry", goerr.V("entryID", entry.ID))
		}
		logging.From(ctx).Info("entry analyzed", "entryID", entry.ID)
		return nil
	})
}

// AnalyzeEntry annotates one stored entry synchronously
func (uc *UseCases) AnalyzeEntry(ctx context.Context, id types.EntryID) error {
	if uc.analyzer == nil {
		return goerr.New("no analyzer configured")
	}
	return uc.analyzeEntry(ctx, id)
}

func (uc *UseCases) analyzeEntry(ctx context.Context, id types.EntryID) error {
	entry, err := uc.repo.Entry().Get(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		// Deleted while analysis was queued
		return nil
	}

	result, err := uc.analyzer.Analyze(ctx, entry)
	if err != nil {
		return err
	}

	entry.Emotions = result.Emotions
	entry.Sentiment = result.Sentiment
	entry.Topics = result.Topics
	entry.KeyInsights = result.KeyInsights
	entry.Embedding = result.Embedding

	return uc.repo.Entry().Update(ctx, entry)
}
