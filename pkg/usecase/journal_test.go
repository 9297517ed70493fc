package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/repository/memory"
	"github.com/inner-lab/mnemosyne/pkg/service/analysis"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
)

type mockAnalyzer struct {
	analyzeFn   func(ctx context.Context, entry *model.Entry) (*analysis.Result, error)
	analyzeCall int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, entry *model.Entry) (*analysis.Result, error) {
	m.analyzeCall++
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, entry)
	}
	return &analysis.Result{
		Emotions:    []string{"calm"},
		Sentiment:   0.3,
		Topics:      []string{"daily life"},
		KeyInsights: []string{"sleep helps"},
		Embedding:   []float32{1.0, 0.0, 0.0},
	}, nil
}

func TestCreateEntry(t *testing.T) {
	t.Run("creates entry with content", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		created, err := uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
			Title:   "A good day",
			Content: "Went for a long walk.",
			Date:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID.Validate()).Nil()
		gt.Value(t, created.Title).Equal("A good day")
		gt.Bool(t, created.HasEmbedding()).False()
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		_, err := uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
			Title:   "title only",
			Content: "   ",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})
}

func TestGetEntry(t *testing.T) {
	t.Run("returns stored entry", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})
		created, err := uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
			Content: "remember this",
		})
		gt.NoError(t, err).Required()

		got, err := uc.GetEntry(context.Background(), created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Content).Equal("remember this")
	})

	t.Run("missing entry maps to not found", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		_, err := uc.GetEntry(context.Background(), types.EntryID("missing"))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEntryNotFound)).True()
	})
}

func TestUpdateEntry(t *testing.T) {
	t.Run("rewrites text and clears stale annotations", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, &mockLLMClient{})
		ctx := context.Background()

		created, err := repo.Entry().Create(ctx, &model.Entry{
			Title:     "old title",
			Content:   "old content",
			Emotions:  []string{"tense"},
			Sentiment: -0.5,
			Topics:    []string{"work"},
			Embedding: []float32{0.1, 0.2, 0.3},
		})
		gt.NoError(t, err).Required()

		updated, err := uc.UpdateEntry(ctx, usecase.UpdateEntryInput{
			ID:      created.ID,
			Title:   "new title",
			Content: "new content",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Title).Equal("new title")
		gt.Value(t, updated.Content).Equal("new content")
		gt.Array(t, updated.Emotions).Length(0)
		gt.Value(t, updated.Sentiment).Equal(0.0)
		gt.Bool(t, updated.HasEmbedding()).False()

		stored, err := repo.Entry().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.HasEmbedding()).False()
	})

	t.Run("keeps the date when the input date is zero", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, &mockLLMClient{})
		ctx := context.Background()

		date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
		created, err := repo.Entry().Create(ctx, &model.Entry{
			Content: "dated entry",
			Date:    date,
		})
		gt.NoError(t, err).Required()

		updated, err := uc.UpdateEntry(ctx, usecase.UpdateEntryInput{
			ID:      created.ID,
			Content: "edited",
		})
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.Date.Equal(date)).True()
	})

	t.Run("updating a missing entry maps to not found", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		_, err := uc.UpdateEntry(context.Background(), usecase.UpdateEntryInput{
			ID:      types.EntryID("missing"),
			Content: "anything",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEntryNotFound)).True()
	})
}

func TestDeleteEntry(t *testing.T) {
	t.Run("removes the entry", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, &mockLLMClient{})
		ctx := context.Background()

		created, err := repo.Entry().Create(ctx, &model.Entry{Content: "goodbye"})
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeleteEntry(ctx, created.ID))

		stored, err := repo.Entry().Get(ctx, created.ID)
		gt.NoError(t, err)
		gt.Value(t, stored).Nil()
	})

	t.Run("deleting a missing entry maps to not found", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		err := uc.DeleteEntry(context.Background(), types.EntryID("missing"))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEntryNotFound)).True()
	})
}

func TestSearchEntries(t *testing.T) {
	t.Run("returns ranked projections without content", func(t *testing.T) {
		repo := memory.New()
		seedEmbeddedEntries(t, repo, 4)
		uc := usecase.New(repo, &mockLLMClient{})

		results, err := uc.SearchEntries(context.Background(), "walks in the park", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2).Required()
		gt.Value(t, results[0].Title).Equal("journal 0")
		gt.Bool(t, results[0].Score >= results[1].Score).True()
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		_, err := uc.SearchEntries(context.Background(), "  ", 3)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})
}

func TestAnalyzeEntry(t *testing.T) {
	t.Run("fills annotations and embedding", func(t *testing.T) {
		repo := memory.New()
		analyzer := &mockAnalyzer{}
		uc := usecase.New(repo, &mockLLMClient{}, usecase.WithAnalyzer(analyzer))
		ctx := context.Background()

		created, err := repo.Entry().Create(ctx, &model.Entry{Content: "walked at dawn"})
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.AnalyzeEntry(ctx, created.ID)).Required()
		gt.Number(t, analyzer.analyzeCall).Equal(1)

		stored, err := repo.Entry().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stored.Emotions).Length(1)
		gt.Value(t, stored.Sentiment).Equal(0.3)
		gt.Bool(t, stored.HasEmbedding()).True()
	})

	t.Run("entry deleted while queued is a no-op", func(t *testing.T) {
		repo := memory.New()
		analyzer := &mockAnalyzer{}
		uc := usecase.New(repo, &mockLLMClient{}, usecase.WithAnalyzer(analyzer))

		gt.NoError(t, uc.AnalyzeEntry(context.Background(), types.EntryID("gone")))
		gt.Number(t, analyzer.analyzeCall).Equal(0)
	})

	t.Run("without an analyzer the call is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New(), &mockLLMClient{})

		err := uc.AnalyzeEntry(context.Background(), types.EntryID("any"))
		gt.Error(t, err)
	})
}
