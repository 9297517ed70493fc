package usecase

import (
	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model/config"
	"github.com/inner-lab/mnemosyne/pkg/service/analysis"
	"github.com/inner-lab/mnemosyne/pkg/service/digest"
	"github.com/inner-lab/mnemosyne/pkg/service/retrieval"
	"github.com/inner-lab/mnemosyne/pkg/service/session"
)

type UseCases struct {
	repo       interfaces.Repository
	llm        interfaces.LLMClient
	analyzer   analysis.Service
	engineCfg  *config.EngineConfig
	digestOpts []digest.Option

	sessions   *session.Store
	retrieval  *retrieval.Engine
	compressor *digest.Compressor
	compactor  *session.Compactor
}

type Option func(*UseCases)

// WithEngineConfig overrides the engine tuning defaults
func WithEngineConfig(cfg *config.EngineConfig) Option {
	return func(uc *UseCases) {
		uc.engineCfg = cfg
	}
}

// WithAnalyzer wires the entry analysis service. Without it, entries
// are stored without annotations or embeddings.
func WithAnalyzer(a analysis.Service) Option {
	return func(uc *UseCases) {
		uc.analyzer = a
	}
}

// WithSessionStore replaces the conversation store, mainly for tests
func WithSessionStore(s *session.Store) Option {
	return func(uc *UseCases) {
		uc.sessions = s
	}
}

// WithDigestOptions forwards options to the digest compressor, mainly
// for tests that inject a fake pacing clock
func WithDigestOptions(opts ...digest.Option) Option {
	return func(uc *UseCases) {
		uc.digestOpts = opts
	}
}

func New(repo interfaces.Repository, llm interfaces.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		llm:  llm,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.engineCfg == nil {
		uc.engineCfg = config.DefaultEngineConfig()
	}
	if uc.sessions == nil {
		uc.sessions = session.NewStore()
	}

	uc.retrieval = retrieval.New(repo, llm, uc.engineCfg.Retrieval)
	uc.compressor = digest.New(llm, uc.engineCfg.Digest, uc.digestOpts...)
	uc.compactor = session.NewCompactor(llm, uc.engineCfg.Compactor)

	return uc
}

// Sessions exposes the conversation store for lifecycle management
func (uc *UseCases) Sessions() *session.Store {
	return uc.sessions
}
