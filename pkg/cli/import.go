package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/inner-lab/mnemosyne/pkg/cli/config"
	"github.com/inner-lab/mnemosyne/pkg/service/notion"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
	"github.com/inner-lab/mnemosyne/pkg/utils/logging"
)

func cmdImport() *cli.Command {
	var notionToken string
	var notionDB string
	var sinceDays int
	var repoCfg config.Repository
	var llmCfg config.LLM
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOSYNE_NOTION_API_TOKEN"),
			Destination: &notionToken,
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database holding journal pages",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOSYNE_NOTION_DATABASE_ID"),
			Destination: &notionDB,
		},
		&cli.IntFlag{
			Name:        "since-days",
			Usage:       "Only import pages edited within the last N days (0 imports everything)",
			Destination: &sinceDays,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:  "import",
		Usage: "Import journal pages from a Notion database",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			engine, err := engineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load engine configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, analyzer, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM backend")
			}

			notionSvc, err := notion.New(notionToken)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize notion service")
			}

			uc := usecase.New(repo, llmClient,
				usecase.WithEngineConfig(engine),
				usecase.WithAnalyzer(analyzer),
			)

			var since time.Time
			if sinceDays > 0 {
				since = time.Now().AddDate(0, 0, -sinceDays)
			}

			result, err := uc.ImportNotion(ctx, notionSvc, notionDB, since)
			if err != nil {
				return err
			}

			logging.Default().Info("Import completed",
				"imported", result.Imported,
				"skipped", result.Skipped,
				"analysis_failed", result.Failed,
			)
			return nil
		},
	}
}
