package council

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashishsumanth1/Resume-Council/internal/llm"
	"github.com/ashishsumanth1/Resume-Council/internal/packs"
	"github.com/ashishsumanth1/Resume-Council/internal/prompts"
)

// Config fixes the pipeline's backends and budgets for the process lifetime.
type Config struct {
	// Backend ids, in configuration order. Order decides label assignment
	// and the no-ranking fallback candidate.
	DraftBackends   []string
	RankingBackends []string
	// JudgeBackend scores drafts when peer ranking is off. Empty disables
	// the advisory verdict.
	JudgeBackend string
	// PolishBackend runs synthesis. Required.
	PolishBackend string

	UsePeerRankingDefault bool
	ExcludeSelfVotes      bool

	// PolishThreshold gates the premium polish call: when the winning draft
	// already scores at or above it (and is structurally complete), the
	// draft ships as-is.
	PolishThreshold float64

	DraftMaxTokens   int
	RankingMaxTokens int
	JudgeMaxTokens   int
	PolishMaxTokens  int

	DraftTimeout     time.Duration
	RankingTimeout   time.Duration
	SynthesisTimeout time.Duration

	// ProfileMaxChars bounds the profile pack; <= 0 sends the full profile.
	ProfileMaxChars int

	// StyleGuide overrides the built-in style guide prompt when non-empty.
	StyleGuide string
}

// ProgressFunc receives stage events as a run advances: "stageN_start" when
// a stage begins, "stageN_complete" with that stage's output when it settles.
type ProgressFunc func(stage string, payload any)

// Council orchestrates one run at a time over a fixed backend registry. Safe
// for concurrent Run calls; all per-run state is local.
type Council struct {
	registry *llm.Registry
	cfg      Config
	log      zerolog.Logger
}

// New builds a pipeline over the given registry.
func New(registry *llm.Registry, cfg Config, log zerolog.Logger) *Council {
	return &Council{registry: registry, cfg: cfg, log: log.With().Str("component", "council").Logger()}
}

func (c *Council) styleGuide() string {
	if c.cfg.StyleGuide != "" {
		return c.cfg.StyleGuide
	}
	return prompts.MustGet("council.json", "style-guide")
}

// stageCtx applies a per-stage timeout so one stage's slow backends cannot
// eat the later stages' time allowance.
func stageCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Run executes the full pipeline.
func (c *Council) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	return c.RunWithProgress(ctx, input, nil)
}

// RunWithProgress executes the full pipeline, emitting a progress event after
// each stage settles. A nil progress is ignored.
func (c *Council) RunWithProgress(ctx context.Context, input RunInput, progress ProgressFunc) (*RunResult, error) {
	started := time.Now()

	profilePack := packs.BuildProfilePack(input.MasterProfile, c.cfg.ProfileMaxChars)
	jdPack := packs.BuildJDPack(input.JobDescription)

	usePeerRanking := c.cfg.UsePeerRankingDefault
	if input.UsePeerRanking != nil {
		usePeerRanking = *input.UsePeerRanking
	}

	// Stage 1: parallel drafts.
	emit(progress, "stage1_start", nil)
	draftCtx, cancelDrafts := stageCtx(ctx, c.cfg.DraftTimeout)
	drafts := c.runDrafts(draftCtx, input, profilePack, jdPack)
	cancelDrafts()

	okCount := 0
	for _, d := range drafts {
		if d.Status == StatusOK {
			okCount++
		}
	}
	if okCount == 0 {
		// A cancelled run makes every draft fail too; report the cancellation,
		// not a provider outage.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.log.Error().Int("backends", len(drafts)).Msg("every draft backend failed")
		return nil, &AllProvidersFailedError{Backends: c.cfg.DraftBackends}
	}
	c.log.Info().Int("ok", okCount).Int("total", len(drafts)).Msg("draft stage settled")
	emit(progress, "stage1_complete", drafts)

	labels := AssignLabels(drafts)

	// Stage 2: peer ranking, or the judge's advisory verdict when off.
	emit(progress, "stage2_start", nil)
	stage2 := Stage2{LabelToModel: labels.Map()}
	meta := Metadata{
		ProfilePackChars:  len(profilePack),
		Keywords:          jdPack.Keywords,
		SelfVotesExcluded: c.cfg.ExcludeSelfVotes,
	}

	if usePeerRanking {
		rankCtx, cancelRank := stageCtx(ctx, c.cfg.RankingTimeout)
		stage2.Votes = c.runPeerRanking(rankCtx, labels, drafts, profilePack, jdPack)
		cancelRank()
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stage2.AggregateRankings = Aggregate(stage2.Votes, labels)
		if len(stage2.AggregateRankings) == 0 {
			// Every vote failed. Degrade to the no-ranking candidate policy
			// instead of sinking the run.
			c.log.Warn().Msg("peer ranking degraded: no valid votes, falling back to first successful draft")
			meta.RankingDegraded = true
		} else {
			stage2.PeerRankingUsed = true
		}
	} else if c.cfg.JudgeBackend != "" {
		judgeCtx, cancelJudge := stageCtx(ctx, c.cfg.RankingTimeout)
		verdict, err := c.runJudge(judgeCtx, labels, drafts, profilePack, jdPack)
		cancelJudge()
		if err != nil {
			c.log.Warn().Err(err).Str("backend", c.cfg.JudgeBackend).Msg("judge verdict unavailable")
		} else {
			meta.JudgeVerdict = verdict
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emit(progress, "stage2_complete", stage2)

	// Stage 3: synthesis from the consensus winner (or the fallback).
	emit(progress, "stage3_start", nil)
	synthCtx, cancelSynth := stageCtx(ctx, c.cfg.SynthesisTimeout)
	stage3, finalHeuristics, err := c.synthesize(synthCtx, input, drafts, stage2.AggregateRankings, profilePack, jdPack)
	cancelSynth()
	if err != nil {
		return nil, err
	}
	emit(progress, "stage3_complete", stage3)

	meta.FinalHeuristics = finalHeuristics
	meta.DurationMS = time.Since(started).Milliseconds()

	c.log.Info().
		Str("final_model", stage3.Model).
		Bool("peer_ranking_used", stage2.PeerRankingUsed).
		Int64("duration_ms", meta.DurationMS).
		Msg("run complete")

	return &RunResult{
		Stage1:   drafts,
		Stage2:   stage2,
		Stage3:   stage3,
		Metadata: meta,
	}, nil
}

func emit(progress ProgressFunc, stage string, payload any) {
	if progress != nil {
		progress(stage, payload)
	}
}
