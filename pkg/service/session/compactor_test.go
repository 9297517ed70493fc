package session_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/inner-lab/mnemosyne/pkg/service/session"
)

type mockLLMClient struct {
	embedFn      func(ctx context.Context, texts []string) ([][]float32, error)
	generateFn   func(ctx context.Context, prompt string, cfg interfaces.GenerateConfig) (string, error)
	generateCall int
}

func (m *mockLLMClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	return nil, nil
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, cfg interfaces.GenerateConfig) (string, error) {
	m.generateCall++
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt, cfg)
	}
	return "generated", nil
}

func makeMessages(n int) []model.Message {
	msgs := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, model.Message{Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return msgs
}

func TestCompactor(t *testing.T) {
	cfg := config.DefaultEngineConfig().Compactor

	t.Run("no-op below the trigger", func(t *testing.T) {
		llm := &mockLLMClient{}
		compactor := session.NewCompactor(llm, cfg)

		sess := &model.Session{ID: "conv-1", Messages: makeMessages(cfg.Trigger - 1)}
		ran, err := compactor.Compact(context.Background(), sess)
		gt.NoError(t, err)
		gt.Bool(t, ran).False()
		gt.Number(t, llm.generateCall).Equal(0)
		gt.Array(t, sess.Messages).Length(cfg.Trigger - 1)
	})

	t.Run("compaction sets the summary and trims the window", func(t *testing.T) {
		llm := &mockLLMClient{
			generateFn: func(ctx context.Context, prompt string, gcfg interfaces.GenerateConfig) (string, error) {
				gt.Value(t, gcfg.Temperature).Equal(cfg.Temperature)
				gt.Value(t, gcfg.MaxOutputTokens).Equal(cfg.MaxOutputTokens)
				return "The writer has been working through job anxiety.", nil
			},
		}
		compactor := session.NewCompactor(llm, cfg)

		sess := &model.Session{ID: "conv-1", Messages: makeMessages(cfg.Retain + 4)}
		ran, err := compactor.Compact(context.Background(), sess)
		gt.NoError(t, err)
		gt.Bool(t, ran).True()
		gt.Value(t, sess.RollingSummary).Equal("The writer has been working through job anxiety.")
		gt.Array(t, sess.Messages).Length(cfg.Retain)

		// Window keeps the most recent messages
		last := sess.Messages[len(sess.Messages)-1]
		gt.Value(t, last.Content).Equal(fmt.Sprintf("message %d", cfg.Retain+3))
	})

	t.Run("prompt carries the prior summary and recent transcript", func(t *testing.T) {
		var captured string
		llm := &mockLLMClient{
			generateFn: func(ctx context.Context, prompt string, gcfg interfaces.GenerateConfig) (string, error) {
				captured = prompt
				return "new summary", nil
			},
		}
		compactor := session.NewCompactor(llm, cfg)

		sess := &model.Session{
			ID:             "conv-1",
			RollingSummary: "earlier themes: sleep and deadlines",
			Messages:       makeMessages(cfg.Trigger),
		}
		ran, err := compactor.Compact(context.Background(), sess)
		gt.NoError(t, err)
		gt.Bool(t, ran).True()
		gt.Bool(t, strings.Contains(captured, "earlier themes: sleep and deadlines")).True()
		gt.Bool(t, strings.Contains(captured, "message 0")).True()

		// The summary is memory, not counsel: the request forbids both
		// repetition of the prior summary and advice
		gt.Bool(t, strings.Contains(captured, "Do not repeat content already captured")).True()
		gt.Bool(t, strings.Contains(captured, "Do not give advice or suggestions")).True()
	})

	t.Run("generation failure leaves the session untouched", func(t *testing.T) {
		llm := &mockLLMClient{
			generateFn: func(ctx context.Context, prompt string, gcfg interfaces.GenerateConfig) (string, error) {
				return "", goerr.New("model unavailable")
			},
		}
		compactor := session.NewCompactor(llm, cfg)

		sess := &model.Session{ID: "conv-1", RollingSummary: "keep me", Messages: makeMessages(cfg.Retain + 4)}
		ran, err := compactor.Compact(context.Background(), sess)
		gt.Error(t, err)
		gt.Bool(t, ran).False()
		gt.Value(t, sess.RollingSummary).Equal("keep me")
		gt.Array(t, sess.Messages).Length(cfg.Retain + 4)
	})

	t.Run("empty summary leaves the session untouched without error", func(t *testing.T) {
		llm := &mockLLMClient{
			generateFn: func(ctx context.Context, prompt string, gcfg interfaces.GenerateConfig) (string, error) {
				return "", nil
			},
		}
		compactor := session.NewCompactor(llm, cfg)

		sess := &model.Session{ID: "conv-1", Messages: makeMessages(cfg.Trigger)}
		ran, err := compactor.Compact(context.Background(), sess)
		gt.NoError(t, err)
		gt.Bool(t, ran).False()
		gt.Value(t, sess.RollingSummary).Equal("")
		gt.Array(t, sess.Messages).Length(cfg.Trigger)
	})
}
