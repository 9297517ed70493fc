package usecase_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
)

func TestComposePrompt(t *testing.T) {
	session := &model.Session{
		ID:             "conv-1",
		RollingSummary: "The writer keeps circling back to sleep debt.",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "stale turn"},
			{Role: model.RoleAssistant, Content: "stale reply"},
			{Role: model.RoleUser, Content: "older turn"},
			{Role: model.RoleAssistant, Content: "older reply"},
			{Role: model.RoleUser, Content: "latest question"},
			{Role: model.RoleAssistant, Content: "latest reply"},
		},
	}
	seed := &model.Entry{
		Title:   "Rough Tuesday",
		Content: "Could not focus at all today.",
		Date:    time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	digests := []*model.Digest{
		{Title: "Sleep log", Text: "- slept 5 hours"},
		{Title: "Deadline week", Text: "- project crunch"},
	}

	t.Run("sections appear in fixed order", func(t *testing.T) {
		prompt, err := usecase.ComposePrompt(session, "why am I so tired?", seed, digests, 220)
		gt.NoError(t, err).Required()

		wantOrder := []string{
			"journaling companion",
			"## Conversation so far",
			"The writer keeps circling back to sleep debt.",
			"## Related journal entries",
			"1. [Sleep log]",
			"2. [Deadline week]",
			"## Entry under discussion",
			"### Rough Tuesday (2026-06-02)",
			"## Question",
			"why am I so tired?",
			"## How to answer",
			"under 220 words",
			"## Recent exchange",
			"user: latest question",
		}

		pos := -1
		for _, want := range wantOrder {
			idx := strings.Index(prompt, want)
			gt.Bool(t, idx >= 0).True()
			gt.Bool(t, idx > pos).True()
			pos = idx
		}
	})

	t.Run("recent exchange keeps the last two turns", func(t *testing.T) {
		prompt, err := usecase.ComposePrompt(session, "q", nil, nil, 220)
		gt.NoError(t, err).Required()

		gt.Bool(t, strings.Contains(prompt, "latest question")).True()
		gt.Bool(t, strings.Contains(prompt, "older turn")).True()
		gt.Bool(t, strings.Contains(prompt, "stale turn")).False()
	})

	t.Run("empty sections are omitted", func(t *testing.T) {
		bare := &model.Session{ID: "conv-2"}
		prompt, err := usecase.ComposePrompt(bare, "just a question", nil, nil, 220)
		gt.NoError(t, err).Required()

		gt.Bool(t, strings.Contains(prompt, "## Conversation so far")).False()
		gt.Bool(t, strings.Contains(prompt, "## Related journal entries")).False()
		gt.Bool(t, strings.Contains(prompt, "## Entry under discussion")).False()
		gt.Bool(t, strings.Contains(prompt, "## Recent exchange")).False()
		gt.Bool(t, strings.Contains(prompt, "just a question")).True()
	})

	t.Run("seed entry without a question defaults the reflection question", func(t *testing.T) {
		bare := &model.Session{ID: "conv-3"}
		prompt, err := usecase.ComposePrompt(bare, "", seed, nil, 220)
		gt.NoError(t, err).Required()

		gt.Bool(t, strings.Contains(prompt, usecase.DefaultReflectionQuestion)).True()
	})
}
