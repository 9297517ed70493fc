package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/inner-lab/mnemosyne/pkg/cli/config"
	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
)

func cmdChat() *cli.Command {
	var entryID string
	var limit int
	var repoCfg config.Repository
	var llmCfg config.LLM
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "entry",
			Usage:       "Journal entry ID to reflect on",
			Destination: &entryID,
		},
		&cli.IntFlag{
			Name:        "k",
			Usage:       "Number of related entries to retrieve per turn",
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk with the journaling companion in the terminal",
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
			defer repo.Close() //nolint:errcheck // read-only session

			llmClient, analyzer, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM backend")
			}

			uc := usecase.New(repo, llmClient,
				usecase.WithEngineConfig(engine),
				usecase.WithAnalyzer(analyzer),
			)

			return runChatLoop(ctx, uc, types.EntryID(entryID), limit)
		},
	}
}

func runChatLoop(ctx context.Context, uc *usecase.UseCases, seedEntry types.EntryID, limit int) error {
	prompt := color.New(color.FgCyan, color.Bold)
	answer := color.New(color.FgGreen)
	meta := color.New(color.FgWhite, color.Faint)
	warn := color.New(color.FgYellow)

	meta.Println("Type your message, or an empty line to quit.")

	var convID types.ConversationID
	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" && seedEntry == "" {
			break
		}

		out, err := uc.Respond(ctx, usecase.RespondInput{
			ConversationID: convID,
			Question:       question,
			EntryID:        seedEntry,
			Limit:          limit,
		})
		if err != nil {
			if errors.Is(err, interfaces.ErrContentBlocked) {
				warn.Println("That message was declined by the content filter. Try rephrasing.")
				continue
			}
			return err
		}
		convID = out.ConversationID

		// The seed entry anchors only the first turn
		seedEntry = ""

		answer.Println(out.Response)
		for i, used := range out.UsedEntries {
			meta.Println(fmt.Sprintf("  [%d] %s (%s, score %.3f)",
				i+1, used.Title, used.Date.Format("2006-01-02"), used.Score))
		}
	}

	return scanner.Err()
}
