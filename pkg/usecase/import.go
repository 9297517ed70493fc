package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/service/notion"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// importAnalysisConcurrency bounds concurrent analysis calls during an
// import run; interactive traffic shares the same model quota
const importAnalysisConcurrency = 4

// ImportResult summarizes one import run
type ImportResult struct {
	Imported int
	Skipped  int
	Failed   int
}

// ImportNotion copies journal pages from a Notion database into the
// entry store and analyzes them. Pages without text content are
// skipped. Analysis failures do not abort the run; affected entries
// stay stored without embeddings.
func (uc *UseCases) ImportNotion(ctx context.Context, svc notion.Service, dbID string, since time.Time) (*ImportResult, error) {
	logger := logging.From(ctx)
	result := &ImportResult{}

	var created []*model.Entry
	for page, err := range svc.QueryUpdatedPages(ctx, dbID, since) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read notion pages", goerr.V("dbID", dbID))
		}

		content := strings.TrimSpace(page.Blocks.ToMarkdown())
		if content == "" {
			result.Skipped++
			continue
		}

		entry, err := uc.repo.Entry().Create(ctx, &model.Entry{
			Title:   page.Title(),
			Content: content,
			Date:    page.CreatedTime,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to store imported entry", goerr.V("pageID", page.ID))
		}

		created = append(created, entry)
		result.Imported++
	}

	if uc.analyzer == nil {
		return result, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(importAnalysisConcurrency)

	var mu failedCounter
	for _, entry := range created {
		eg.Go(func() error {
			if err := uc.analyzeEntry(egCtx, entry.ID); err != nil {
				logger.Warn("failed to analyze imported entry",
					"entryID", entry.ID,
					"error", err,
				)
				mu.inc()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "import analysis aborted")
	}

	result.Failed = mu.value()
	return result, nil
}

type failedCounter struct {
	mu sync.Mutex
	n  int
}

func (c *failedCounter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *failedCounter) value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
