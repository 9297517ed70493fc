package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RespondInput is one dialogue turn request
type RespondInput struct {
	ConversationID types.ConversationID
	Question       string
	EntryID        types.EntryID
	Limit          int
}

// RespondOutput carries the reply and its retrieval provenance
type RespondOutput struct {
	ConversationID types.ConversationID
	Response       string
	UsedEntries    []*model.RetrievalResult
}

// Respond runs one full dialogue turn: retrieve related entries,
// digest them, compose the prompt, generate the reply, and record the
// turn in the conversation session.
//
// Turns on the same conversation are serialized by the session store;
// concurrent callers on one conversation queue up rather than
// interleave.
func (uc *UseCases) Respond(ctx context.Context, input RespondInput) (*RespondOutput, error) {
	if strings.TrimSpace(input.Question) == "" && input.EntryID == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "respond requires a question or an entry")
	}

	var seedEntry *model.Entry
	if input.EntryID != "" {
		entry, err := uc.repo.Entry().Get(ctx, input.EntryID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load seed entry", goerr.V("entryID", input.EntryID))
		}
		if entry == nil {
			return nil, goerr.Wrap(ErrEntryNotFound, "seed entry does not exist", goerr.V("entryID", input.EntryID))
		}
		seedEntry = entry
	}

	question := strings.TrimSpace(input.Question)
	convID := uc.sessions.Resolve(input.ConversationID)

	var out *RespondOutput
	err := uc.sessions.WithSession(ctx, convID, func(session *model.Session) error {
		result, err := uc.respondTurn(ctx, session, question, seedEntry, input.Limit)
		if err != nil {
			return err
		}
		result.ConversationID = convID
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCases) respondTurn(ctx context.Context, session *model.Session, question string, seedEntry *model.Entry, limit int) (*RespondOutput, error) {
	query := question
	if seedEntry != nil {
		if query == "" {
			query = defaultReflectionQuestion
		}
		query += "\n\n" + seedEntry.Content
	}

	matches, err := uc.retrieval.Retrieve(ctx, query, limit)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, err.Error())
	}

	digests := uc.compressor.Compress(ctx, matches)

	prompt, err := composePrompt(session, question, seedEntry, digests, uc.engineCfg.Therapist.WordLimit)
	if err != nil {
		return nil, err
	}

	answer, err := uc.llm.Generate(ctx, prompt, interfaces.GenerateConfig{
		Temperature:     uc.engineCfg.Therapist.Temperature,
		MaxOutputTokens: uc.engineCfg.Therapist.MaxOutputTokens,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrContentBlocked) {
			return nil, err
		}
		return nil, goerr.Wrap(ErrUpstream, err.Error())
	}
	if answer == "" {
		return nil, goerr.Wrap(ErrEmptyResponse, "generation produced no text")
	}

	userText := question
	if userText == "" {
		userText = defaultReflectionQuestion
	}
	session.Messages = append(session.Messages,
		model.Message{Role: model.RoleUser, Content: userText},
		model.Message{Role: model.RoleAssistant, Content: answer},
	)

	// The turn already succeeded; a failed compaction just leaves a
	// longer transcript for the next qualifying turn
	if _, err := uc.compactor.Compact(ctx, session); err != nil {
		logging.From(ctx).Warn("conversation compaction failed",
			"conversationID", session.ID,
			"error", err,
		)
	}

	used := make([]*model.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		used = append(used, &model.RetrievalResult{
			EntryID: m.Entry.ID,
			Title:   m.Entry.Title,
			Date:    m.Entry.Date,
			Score:   m.Score,
		})
	}

	return &RespondOutput{
		Response:    answer,
		UsedEntries: used,
	}, nil
}
