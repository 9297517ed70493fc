package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/therapist_system.md
var therapistPromptTmpl string

var therapistPrompt = template.Must(
	template.New("therapist_system").
		Funcs(template.FuncMap{
			"rank": func(i int) int { return i + 1 },
		}).
		Parse(therapistPromptTmpl),
)

// defaultReflectionQuestion fills the question section when the caller
// supplied a seed entry without typing anything
const defaultReflectionQuestion = "Help me reflect on this journal entry. What stands out to you?"

// recentMessageCount is how many raw trailing messages are appended
// verbatim for short-term recency. A turn is a user/assistant pair, so
// the last two turns span four messages.
const recentMessageCount = 4

// promptData feeds the therapist prompt template. Section order in the
// template is fixed: persona, rolling summary, related entries, seed
// entry, question, answer instructions, recent exchange.
type promptData struct {
	RollingSummary string
	Digests        []*model.Digest
	SeedEntry      *model.Entry
	Question       string
	WordLimit      int
	RecentTurns    []model.Message
}

// composePrompt renders the full generation prompt. It is a pure
// function of its input; session state is passed in, never read from
// ambient state.
func composePrompt(session *model.Session, question string, seedEntry *model.Entry, digests []*model.Digest, wordLimit int) (string, error) {
	if question == "" && seedEntry != nil {
		question = defaultReflectionQuestion
	}

	data := promptData{
		RollingSummary: session.RollingSummary,
		Digests:        digests,
		SeedEntry:      seedEntry,
		Question:       question,
		WordLimit:      wordLimit,
		RecentTurns:    session.LastMessages(recentMessageCount),
	}

	var buf bytes.Buffer
	if err := therapistPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute therapist prompt template")
	}
	return buf.String(), nil
}
