package retrieval_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/inner-lab/mnemosyne/pkg/repository/memory"
	"github.com/inner-lab/mnemosyne/pkg/service/retrieval"
)

type mockLLMClient struct {
	embedFn    func(ctx context.Context, texts []string) ([][]float32, error)
	embedCalls [][]string
}

func (m *mockLLMClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.embedCalls = append(m.embedCalls, texts)
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	return [][]float32{{1.0, 0.0, 0.0}}, nil
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, cfg interfaces.GenerateConfig) (string, error) {
	return "", nil
}

func seedEntries(t *testing.T, repo *memory.Memory, vecs map[string][]float32) map[string]*model.Entry {
	t.Helper()
	ctx := context.Background()

	created := make(map[string]*model.Entry, len(vecs))
	for title, vec := range vecs {
		entry, err := repo.Entry().Create(ctx, &model.Entry{
			Title:     title,
			Content:   "content of " + title,
			Embedding: vec,
		})
		gt.NoError(t, err).Required()
		created[title] = entry
	}
	return created
}

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		ChatPool:     100,
		SearchPool:   300,
		DefaultLimit: 5,
	}
}

func TestClampLimit(t *testing.T) {
	engine := retrieval.New(memory.New(), &mockLLMClient{}, testConfig())

	gt.Number(t, engine.ClampLimit(0)).Equal(5)
	gt.Number(t, engine.ClampLimit(-3)).Equal(1)
	gt.Number(t, engine.ClampLimit(1)).Equal(1)
	gt.Number(t, engine.ClampLimit(7)).Equal(7)
	gt.Number(t, engine.ClampLimit(10)).Equal(10)
	gt.Number(t, engine.ClampLimit(11)).Equal(10)
	gt.Number(t, engine.ClampLimit(100)).Equal(10)
}

func TestRetrieve(t *testing.T) {
	t.Run("returns matches ordered by similarity", func(t *testing.T) {
		repo := memory.New()
		seedEntries(t, repo, map[string][]float32{
			"closest":    {1.0, 0.05, 0.0},
			"near":       {1.0, 0.5, 0.0},
			"orthogonal": {0.0, 1.0, 0.0},
		})

		llm := &mockLLMClient{}
		engine := retrieval.New(repo, llm, testConfig())

		matches, err := engine.Retrieve(context.Background(), "how was my week", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, matches).Length(2)
		gt.Value(t, matches[0].Entry.Title).Equal("closest")
		gt.Value(t, matches[1].Entry.Title).Equal("near")
		gt.Bool(t, matches[0].Score >= matches[1].Score).True()
	})

	t.Run("empty query is rejected before embedding", func(t *testing.T) {
		llm := &mockLLMClient{}
		engine := retrieval.New(memory.New(), llm, testConfig())

		_, err := engine.Retrieve(context.Background(), "", 3)
		gt.Error(t, err)
		gt.Array(t, llm.embedCalls).Length(0)
	})

	t.Run("long query is truncated to the embedding budget", func(t *testing.T) {
		llm := &mockLLMClient{}
		engine := retrieval.New(memory.New(), llm, testConfig())

		long := strings.Repeat("a", 5000)
		_, err := engine.Retrieve(context.Background(), long, 3)
		gt.NoError(t, err)

		gt.Array(t, llm.embedCalls).Length(1).Required()
		gt.Array(t, llm.embedCalls[0]).Length(1).Required()
		gt.Number(t, len(llm.embedCalls[0][0])).Equal(4000)
	})

	t.Run("embedding failure is fatal for the request", func(t *testing.T) {
		llm := &mockLLMClient{
			embedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return nil, goerr.New("quota exhausted")
			},
		}
		engine := retrieval.New(memory.New(), llm, testConfig())

		_, err := engine.Retrieve(context.Background(), "anything", 3)
		gt.Error(t, err)
	})

	t.Run("missing vector in the response is an error", func(t *testing.T) {
		llm := &mockLLMClient{
			embedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{}, nil
			},
		}
		engine := retrieval.New(memory.New(), llm, testConfig())

		_, err := engine.Retrieve(context.Background(), "anything", 3)
		gt.Error(t, err)
	})

	t.Run("no embedded entries yields an empty result", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Entry().Create(context.Background(), &model.Entry{
			Title:   "unembedded",
			Content: "analysis pending",
		})
		gt.NoError(t, err).Required()

		engine := retrieval.New(repo, &mockLLMClient{}, testConfig())
		matches, err := engine.Retrieve(context.Background(), "anything", 3)
		gt.NoError(t, err)
		gt.Array(t, matches).Length(0)
	})
}

func TestSearch(t *testing.T) {
	t.Run("search shares the pipeline with retrieve", func(t *testing.T) {
		repo := memory.New()
		seedEntries(t, repo, map[string][]float32{
			"closest": {1.0, 0.05, 0.0},
			"near":    {1.0, 0.5, 0.0},
		})

		engine := retrieval.New(repo, &mockLLMClient{}, testConfig())
		matches, err := engine.Search(context.Background(), "deadlines", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, matches).Length(2)
		gt.Value(t, matches[0].Entry.Title).Equal("closest")
	})
}
