package digest

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/inner-lab/mnemosyne/pkg/utils/pacer"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/digest.md
var digestPromptTmpl string

var digestPrompt = template.Must(template.New("digest").Parse(digestPromptTmpl))

// Compressor condenses retrieved entries into short digests that fit
// the dialogue context window.
type Compressor struct {
	llm  interfaces.LLMClient
	cfg  config.DigestConfig
	opts []pacer.Option
}

// Option customizes a Compressor
type Option func(*Compressor)

// WithPacerOptions forwards options to the per-call pacer, mainly for
// tests
func WithPacerOptions(opts ...pacer.Option) Option {
	return func(c *Compressor) {
		c.opts = opts
	}
}

// New creates a Compressor
func New(llm interfaces.LLMClient, cfg config.DigestConfig, opts ...Option) *Compressor {
	c := &Compressor{
		llm: llm,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type digestPromptData struct {
	Title     string
	Date      string
	Content   string
	MaxTokens int
}

// Compress produces exactly one digest per match, in input order.
// A failed or empty model call degrades that single digest to a
// truncated excerpt of the raw entry instead of failing the batch.
// Calls to the model are paced at a fixed interval.
func (c *Compressor) Compress(ctx context.Context, matches []*model.EntryMatch) []*model.Digest {
	p := pacer.New(c.cfg.Interval, c.opts...)

	digests := make([]*model.Digest, 0, len(matches))
	for _, match := range matches {
		if err := p.Wait(ctx); err != nil {
			digests = append(digests, c.fallback(match.Entry))
			continue
		}
		digests = append(digests, c.compressOne(ctx, match.Entry))
	}
	return digests
}

func (c *Compressor) compressOne(ctx context.Context, entry *model.Entry) *model.Digest {
	text, err := c.generate(ctx, entry)
	if err != nil || text == "" {
		logging.From(ctx).Warn("entry digest failed, falling back to excerpt",
			"entryID", entry.ID,
			"error", err,
		)
		return c.fallback(entry)
	}

	return &model.Digest{
		EntryID: entry.ID,
		Title:   entry.Title,
		Text:    text,
	}
}

func (c *Compressor) generate(ctx context.Context, entry *model.Entry) (string, error) {
	data := digestPromptData{
		Title:     entry.Title,
		Date:      entry.Date.Format("2006-01-02"),
		Content:   entry.Content,
		MaxTokens: c.cfg.MaxOutputTokens,
	}

	var buf bytes.Buffer
	if err := digestPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute digest prompt template")
	}

	return c.llm.Generate(ctx, buf.String(), interfaces.GenerateConfig{
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	})
}

func (c *Compressor) fallback(entry *model.Entry) *model.Digest {
	return &model.Digest{
		EntryID:  entry.ID,
		Title:    entry.Title,
		Text:     truncate(entry.Content, c.cfg.FallbackChars),
		Fallback: true,
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
