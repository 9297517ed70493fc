package session

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/compact.md
var compactPromptTmpl string

var compactPrompt = template.Must(template.New("compact").Parse(compactPromptTmpl))

// summaryMinTokens is the lower bound requested from the model; the
// upper bound comes from CompactorConfig.MaxOutputTokens
const summaryMinTokens = 120

// Compactor rolls old conversation turns into a rolling summary so the
// in-memory transcript stays bounded.
type Compactor struct {
	llm interfaces.LLMClient
	cfg config.CompactorConfig
}

// NewCompactor creates a Compactor
func NewCompactor(llm interfaces.LLMClient, cfg config.CompactorConfig) *Compactor {
	return &Compactor{
		llm: llm,
		cfg: cfg,
	}
}

type compactPromptData struct {
	PriorSummary string
	Messages     []model.Message
	MinTokens    int
	MaxTokens    int
}

// Compact updates the session's rolling summary and trims its message
// window when the transcript has grown past the trigger. It returns
// whether compaction ran. A failed or empty summarization leaves the
// session untouched: the next turn simply carries a longer transcript.
func (c *Compactor) Compact(ctx context.Context, session *model.Session) (bool, error) {
	if len(session.Messages) < c.cfg.Trigger {
		return false, nil
	}

	prompt, err := c.buildPrompt(session)
	if err != nil {
		return false, err
	}

	summary, err := c.llm.Generate(ctx, prompt, interfaces.GenerateConfig{
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to summarize conversation",
			goerr.V("conversationID", session.ID),
		)
	}
	if summary == "" {
		logging.From(ctx).Warn("conversation summary came back empty, keeping transcript",
			"conversationID", session.ID,
		)
		return false, nil
	}

	session.RollingSummary = summary
	session.Messages = session.LastMessages(c.cfg.Retain)
	return true, nil
}

func (c *Compactor) buildPrompt(session *model.Session) (string, error) {
	data := compactPromptData{
		PriorSummary: session.RollingSummary,
		Messages:     session.LastMessages(c.cfg.Transcript),
		MinTokens:    summaryMinTokens,
		MaxTokens:    c.cfg.MaxOutputTokens,
	}

	var buf bytes.Buffer
	if err := compactPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute compact prompt template")
	}
	return buf.String(), nil
}
