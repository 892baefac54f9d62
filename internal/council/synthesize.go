package council

import (
	"context"
	"strings"

	"github.com/ashishsumanth1/Resume-Council/internal/llm"
	"github.com/ashishsumanth1/Resume-Council/internal/packs"
	"github.com/ashishsumanth1/Resume-Council/internal/prompts"
	"github.com/ashishsumanth1/Resume-Council/internal/resume"
)

const polishTemperature = 0.4

// selectCandidate picks the draft that feeds synthesis. With a consensus
// ranking, the top entry wins and the second-best draft becomes supporting
// context. Without one (ranking off or degraded), the policy is fixed: first
// successful draft in backend-configuration order, no runner-up.
func selectCandidate(drafts []Draft, aggregate []AggregateEntry) (winner Draft, runnerUp string) {
	byProducer := make(map[string]Draft, len(drafts))
	for _, d := range drafts {
		byProducer[d.ProducerID] = d
	}

	if len(aggregate) > 0 {
		winner = byProducer[aggregate[0].ProducerID]
		if len(aggregate) > 1 {
			runnerUp = byProducer[aggregate[1].ProducerID].Text
		}
		return winner, runnerUp
	}

	for _, d := range drafts {
		if d.Status == StatusOK {
			return d, ""
		}
	}
	return Draft{}, ""
}

func (c *Council) buildPolishPrompt(input RunInput, profilePack string, jdPack packs.JDPack, bestResume, runnerUp string) string {
	return prompts.Format(prompts.MustGet("council.json", "polish"), map[string]string{
		"StyleGuide":     c.styleGuide(),
		"ProfilePack":    profilePack,
		"JDCompact":      jdPack.JDCompact,
		"CompanyDetails": input.CompanyDetails,
		"BestResume":     bestResume,
		"RunnerUp":       runnerUp,
	})
}

// synthesize produces the final resume. The premium polish call is skipped
// when the winning draft is already structurally complete and scores at or
// above the polish threshold. A failed polish call fails the whole run: a
// run without a final answer has no useful output.
func (c *Council) synthesize(ctx context.Context, input RunInput, drafts []Draft, aggregate []AggregateEntry, profilePack string, jdPack packs.JDPack) (Stage3, *packs.Heuristics, error) {
	winner, runnerUp := selectCandidate(drafts, aggregate)

	missing := resume.MissingRequiredSections(winner.Text)
	truncated := resume.LooksTruncated(winner.Text)
	best := resume.EnsureRequiredOutline(winner.Text, profilePack)

	heur := packs.ComputeHeuristics(best, jdPack.Keywords)
	proxy := heur.PolishProxyScore()

	if !missing && !truncated && proxy >= c.cfg.PolishThreshold {
		c.log.Info().
			Str("backend", winner.ProducerID).
			Float64("proxy_score", proxy).
			Msg("polish skipped: winning draft complete and above threshold")
		return Stage3{
			Model:    winner.ProducerID,
			Response: best,
			Notes:    "Selected best draft (no premium polish).",
		}, &heur, nil
	}

	client, ok := c.registry.Get(c.cfg.PolishBackend)
	if !ok {
		return Stage3{}, nil, &SynthesisFailedError{Backend: c.cfg.PolishBackend, Err: errNotRegistered}
	}

	prompt := c.buildPolishPrompt(input, profilePack, jdPack, best, runnerUp)
	resp, err := client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   c.cfg.PolishMaxTokens,
		Temperature: polishTemperature,
	})
	if err != nil {
		return Stage3{}, nil, &SynthesisFailedError{Backend: c.cfg.PolishBackend, Err: err}
	}
	polished := strings.TrimSpace(resp.Text)
	if polished == "" {
		return Stage3{}, nil, &SynthesisFailedError{Backend: c.cfg.PolishBackend}
	}

	final := resume.EnsureRequiredOutline(polished, profilePack)
	finalHeur := packs.ComputeHeuristics(final, jdPack.Keywords)
	return Stage3{
		Model:    c.cfg.PolishBackend,
		Response: final,
		Notes:    "Premium polish applied.",
	}, &finalHeur, nil
}
