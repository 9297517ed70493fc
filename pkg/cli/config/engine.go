package config

import (
	"os"
	"time"

	domainConfig "github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Engine holds the CLI flag for engine tuning overrides
type Engine struct {
	path string
}

// Flags returns CLI flags for engine configuration
func (e *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "engine-config",
			Usage:       "Path to a TOML file overriding engine tuning defaults",
			Sources:     cli.EnvVars("MNEMOSYNE_ENGINE_CONFIG"),
			Destination: &e.path,
		},
	}
}

// engineFile is the TOML representation of engine overrides. Zero
// values mean "keep the default".
type engineFile struct {
	Retrieval struct {
		ChatPool     int `toml:"chat_pool"`
		SearchPool   int `toml:"search_pool"`
		DefaultLimit int `toml:"default_limit"`
	} `toml:"retrieval"`
	Digest struct {
		IntervalMS      int     `toml:"interval_ms"`
		FallbackChars   int     `toml:"fallback_chars"`
		MaxOutputTokens int     `toml:"max_output_tokens"`
		Temperature     float64 `toml:"temperature"`
	} `toml:"digest"`
	Compactor struct {
		Trigger         int     `toml:"trigger"`
		Transcript      int     `toml:"transcript"`
		Retain          int     `toml:"retain"`
		MaxOutputTokens int     `toml:"max_output_tokens"`
		Temperature     float64 `toml:"temperature"`
	} `toml:"compactor"`
	Therapist struct {
		WordLimit       int     `toml:"word_limit"`
		MaxOutputTokens int     `toml:"max_output_tokens"`
		Temperature     float64 `toml:"temperature"`
	} `toml:"therapist"`
}

// Configure loads the engine configuration, applying file overrides on
// top of the built-in defaults
func (e *Engine) Configure() (*domainConfig.EngineConfig, error) {
	cfg := domainConfig.DefaultEngineConfig()
	if e.path == "" {
		return cfg, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read engine config file", goerr.V("path", e.path))
	}

	var file engineFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML engine config", goerr.V("path", e.path))
	}

	applyOverrides(cfg, &file)

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "engine config validation failed", goerr.V("path", e.path))
	}
	return cfg, nil
}

func applyOverrides(cfg *domainConfig.EngineConfig, file *engineFile) {
	if file.Retrieval.ChatPool > 0 {
		cfg.Retrieval.ChatPool = file.Retrieval.ChatPool
	}
	if file.Retrieval.SearchPool > 0 {
		cfg.Retrieval.SearchPool = file.Retrieval.SearchPool
	}
	if file.Retrieval.DefaultLimit > 0 {
		cfg.Retrieval.DefaultLimit = file.Retrieval.DefaultLimit
	}

	if file.Digest.IntervalMS > 0 {
		cfg.Digest.Interval = time.Duration(file.Digest.IntervalMS) * time.Millisecond
	}
	if file.Digest.FallbackChars > 0 {
		cfg.Digest.FallbackChars = file.Digest.FallbackChars
	}
	if file.Digest.MaxOutputTokens > 0 {
		cfg.Digest.MaxOutputTokens = file.Digest.MaxOutputTokens
	}
	if file.Digest.Temperature > 0 {
		cfg.Digest.Temperature = file.Digest.Temperature
	}

	if file.Compactor.Trigger > 0 {
		cfg.Compactor.Trigger = file.Compactor.Trigger
	}
	if file.Compactor.Transcript > 0 {
		cfg.Compactor.Transcript = file.Compactor.Transcript
	}
	if file.Compactor.Retain > 0 {
		cfg.Compactor.Retain = file.Compactor.Retain
	}
	if file.Compactor.MaxOutputTokens > 0 {
		cfg.Compactor.MaxOutputTokens = file.Compactor.MaxOutputTokens
	}
	if file.Compactor.Temperature > 0 {
		cfg.Compactor.Temperature = file.Compactor.Temperature
	}

	if file.Therapist.WordLimit > 0 {
		cfg.Therapist.WordLimit = file.Therapist.WordLimit
	}
	if file.Therapist.MaxOutputTokens > 0 {
		cfg.Therapist.MaxOutputTokens = file.Therapist.MaxOutputTokens
	}
	if file.Therapist.Temperature > 0 {
		cfg.Therapist.Temperature = file.Therapist.Temperature
	}
}
