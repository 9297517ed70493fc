package config

import (
	"context"
	"log/slog"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/service/analysis"
	"github.com/inner-lab/mnemosyne/pkg/service/llm"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

// LLM holds CLI flags for the model backend
type LLM struct {
	backend string

	geminiProject  string
	geminiLocation string

	openaiAPIKey  string
	openaiBaseURL string
	openaiModel   string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-backend",
			Usage:       "LLM backend (gemini or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("MNEMOSYNE_LLM_BACKEND"),
			Destination: &l.backend,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "Base URL for OpenAI-compatible APIs",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_BASE_URL", "OPENAI_BASE_URL"),
			Destination: &l.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "Chat model for the openai backend",
			Value:       "gpt-4o",
			Sources:     cli.EnvVars("MNEMOSYNE_OPENAI_MODEL"),
			Destination: &l.openaiModel,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", l.backend),
		slog.String("gemini_project", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
		slog.String("openai_model", l.openaiModel),
	}
}

// Configure builds the LLM client and the entry analysis service for
// the selected backend
func (l *LLM) Configure(ctx context.Context) (interfaces.LLMClient, analysis.Service, error) {
	switch l.backend {
	case "gemini":
		if l.geminiProject == "" {
			return nil, nil, goerr.New("gemini-project is required when using gemini backend")
		}
		gollemClient, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		analyzer, err := analysis.New(gollemClient)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewGeminiWithClient(gollemClient), analyzer, nil

	case "openai":
		opts := []llm.OpenAIOption{
			llm.WithChatModel(l.openaiModel),
		}
		if l.openaiBaseURL != "" {
			opts = append(opts, llm.WithBaseURL(l.openaiBaseURL))
		}
		client, err := llm.NewOpenAI(l.openaiAPIKey, opts...)
		if err != nil {
			return nil, nil, err
		}
		analyzer, err := analysis.NewText(client)
		if err != nil {
			return nil, nil, err
		}
		return client, analyzer, nil

	default:
		return nil, nil, goerr.New("invalid LLM backend", goerr.V("backend", l.backend))
	}
}
