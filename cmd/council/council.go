package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/ashishsumanth1/Resume-Council/internal/config"
	"github.com/ashishsumanth1/Resume-Council/internal/council"
	"github.com/ashishsumanth1/Resume-Council/internal/llm"
)

// newLogger builds the process logger. CLI commands log human-readable to
// stderr; serve logs JSON to stdout.
func newLogger(console bool, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if console && !verbose {
		level = zerolog.WarnLevel
	}
	if console {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// councilConfig maps runtime configuration onto the pipeline.
func councilConfig(cfg *config.Config) (council.Config, error) {
	styleGuide, err := cfg.StyleGuideText()
	if err != nil {
		return council.Config{}, err
	}

	return council.Config{
		DraftBackends:         cfg.DraftModels,
		RankingBackends:       cfg.RankingModels,
		JudgeBackend:          cfg.JudgeModel,
		PolishBackend:         cfg.PolishModel,
		UsePeerRankingDefault: cfg.UsePeerRanking,
		ExcludeSelfVotes:      cfg.ExcludeSelfVotes,
		PolishThreshold:       cfg.PolishThreshold,
		DraftMaxTokens:        cfg.DraftMaxTokens,
		RankingMaxTokens:      cfg.RankingMaxTokens,
		JudgeMaxTokens:        cfg.JudgeMaxTokens,
		PolishMaxTokens:       cfg.PolishMaxTokens,
		DraftTimeout:          cfg.DraftTimeout,
		RankingTimeout:        cfg.RankingTimeout,
		SynthesisTimeout:      cfg.SynthesisTimeout,
		ProfileMaxChars:       cfg.EffectiveProfileMaxChars(),
		StyleGuide:            styleGuide,
	}, nil
}

// buildCouncil wires the backend registry and the pipeline. The caller owns
// the registry and must Close it.
func buildCouncil(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*council.Council, *llm.Registry, error) {
	registry, err := llm.BuildRegistry(ctx, cfg.BackendConfigs(), cfg.MaxRetries, cfg.RetryBaseDelay)
	if err != nil {
		return nil, nil, err
	}

	ccfg, err := councilConfig(cfg)
	if err != nil {
		registry.Close() //nolint:errcheck
		return nil, nil, err
	}

	return council.New(registry, ccfg, log), registry, nil
}
