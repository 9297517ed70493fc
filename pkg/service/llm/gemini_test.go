package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/service/llm"
)

type mockGollemSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockGollemSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"generated text"}}, nil
}

func (s *mockGollemSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockGollemSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockGollemSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockGollemSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockGollemSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockGollemSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockGollemClient struct {
	newSessionFn        func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockGollemClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockGollemSession{}, nil
}

func (c *mockGollemClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	vecs := make([][]float64, len(input))
	for i := range vecs {
		vecs[i] = []float64{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

func TestGeminiEmbed(t *testing.T) {
	t.Run("requests the engine dimension and converts to float32", func(t *testing.T) {
		var gotDimension int
		client := llm.NewGeminiWithClient(&mockGollemClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gotDimension = dimension
				return [][]float64{{0.5, -0.25}}, nil
			},
		})

		vecs, err := client.Embed(context.Background(), []string{"hello"})
		gt.NoError(t, err).Required()
		gt.Number(t, gotDimension).Equal(model.EmbeddingDimension)
		gt.Array(t, vecs).Length(1).Required()
		gt.Value(t, vecs[0]).Equal([]float32{0.5, -0.25})
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return [][]float64{{0.1}}, nil
			},
		})

		_, err := client.Embed(context.Background(), []string{"a", "b"})
		gt.Error(t, err)
	})

	t.Run("backend failure propagates", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, goerr.New("quota exceeded")
			},
		})

		_, err := client.Embed(context.Background(), []string{"a"})
		gt.Error(t, err)
	})
}

func TestGeminiGenerate(t *testing.T) {
	t.Run("joins response texts", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockGollemSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{Texts: []string{"part one", "part two"}}, nil
					},
				}, nil
			},
		})

		text, err := client.Generate(context.Background(), "prompt", interfaces.GenerateConfig{})
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("part one\npart two")
	})

	t.Run("no texts yields an empty result without error", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockGollemSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{}, nil
					},
				}, nil
			},
		})

		text, err := client.Generate(context.Background(), "prompt", interfaces.GenerateConfig{})
		gt.NoError(t, err)
		gt.Value(t, text).Equal("")
	})

	t.Run("safety rejection maps to ErrContentBlocked", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockGollemSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return nil, goerr.New("response blocked by SAFETY settings")
					},
				}, nil
			},
		})

		_, err := client.Generate(context.Background(), "prompt", interfaces.GenerateConfig{})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrContentBlocked)).True()
	})

	t.Run("other backend errors stay generic", func(t *testing.T) {
		client := llm.NewGeminiWithClient(&mockGollemClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockGollemSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return nil, goerr.New("deadline exceeded")
					},
				}, nil
			},
		})

		_, err := client.Generate(context.Background(), "prompt", interfaces.GenerateConfig{})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrContentBlocked)).False()
	})
}
