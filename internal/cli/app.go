package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agora/internal/audit"
	"github.com/ppiankov/agora/internal/cache"
	"github.com/ppiankov/agora/internal/llm"
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/observability"
	"github.com/ppiankov/agora/internal/pipeline"
	"github.com/ppiankov/agora/internal/policy"
	"github.com/ppiankov/agora/internal/validate"
	"github.com/ppiankov/agora/internal/worker"
)

// buildAnalyzer wires providers, cache, rate limiter, audit engine and
// context packs from cfg. A configuration without usable providers still
// yields an analyzer; its runs fail with a configuration error.
func buildAnalyzer(cfg *model.Config, logger zerolog.Logger) (*pipeline.Analyzer, error) {
	runner, err := buildRunner(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine, err := buildEngine(cfg.Audit)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithEngine(engine),
		pipeline.WithAudit(cfg.Audit.Enabled),
		pipeline.WithRunObserver(observability.Recorder{}),
		pipeline.WithLogger(logger),
		pipeline.WithPipelineConfig(cfg.Pipeline),
	}

	if cfg.ContextPacks.Path != "" {
		store, err := pipeline.NewFileContextPackStore(cfg.ContextPacks.Path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithContextPackStore(store))
	}

	return pipeline.NewAnalyzer(runner, opts...), nil
}

func buildRunner(cfg *model.Config, logger zerolog.Logger) (llm.Runner, error) {
	providers, skipped, err := llm.ProvidersFromConfig(cfg.LLM)
	for _, s := range skipped {
		logger.Warn().Err(s).Msg("provider skipped")
	}
	if err != nil && !errors.Is(err, llm.ErrNoProviderConfigured) {
		return nil, fmt.Errorf("configure providers: %w", err)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for _, pc := range cfg.LLM.Providers {
		if pc.RequestsPerSecond > 0 {
			limiter.SetRate(llm.CanonicalName(pc.Name), pc.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		}
	}

	var runner llm.Runner = llm.NewFallbackRunner(providers,
		llm.WithRateLimiter(limiter),
		llm.WithObserver(observability.Recorder{}),
		llm.WithLogger(logger),
	)

	if c := cache.New(cfg.Cache); c != nil {
		logger.Debug().Str("dir", cfg.Cache.Dir).Msg("provider response cache enabled")
		runner = llm.NewCachedRunner(runner, c, 0, logger)
	}
	return runner, nil
}

func buildEngine(cfg model.AuditConfig) (*audit.Engine, error) {
	var opts []audit.Option

	if cfg.PolicyPackPath != "" {
		pack, err := policy.LoadPack(cfg.PolicyPackPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audit.WithPolicyPack(pack))
	}
	if cfg.VoiceRegistryPath != "" {
		voices, err := policy.LoadVoiceRegistry(cfg.VoiceRegistryPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audit.WithVoiceRegistry(voices))
	}
	if cfg.PublishersPath != "" {
		publishers, err := validate.LoadPublisherRegistry(cfg.PublishersPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audit.WithPublishers(publishers))
	}

	linking := cfg.Linking
	if linking == (model.LinkingConfig{}) {
		linking = model.DefaultLinkingConfig()
	}
	opts = append(opts, audit.WithLinking(linking))

	return audit.NewEngine(opts...), nil
}
