package council

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ashishsumanth1/Resume-Council/internal/llm"
	"github.com/ashishsumanth1/Resume-Council/internal/packs"
	"github.com/ashishsumanth1/Resume-Council/internal/prompts"
	"github.com/ashishsumanth1/Resume-Council/internal/resume"
)

const draftTemperature = 0.5

func (c *Council) buildDraftPrompt(input RunInput, profilePack string, jdPack packs.JDPack) string {
	return prompts.Format(prompts.MustGet("council.json", "draft"), map[string]string{
		"StyleGuide":     c.styleGuide(),
		"ProfilePack":    profilePack,
		"JDCompact":      jdPack.JDCompact,
		"Keywords":       strings.Join(jdPack.Keywords, ", "),
		"CompanyDetails": input.CompanyDetails,
	})
}

// runDrafts fans the tailoring prompt out to every draft backend in parallel.
// Each goroutine owns one pre-allocated slot, so no synchronization beyond
// the join is needed. Failures never abort siblings: a failed backend just
// yields a failed Draft in its slot.
func (c *Council) runDrafts(ctx context.Context, input RunInput, profilePack string, jdPack packs.JDPack) []Draft {
	prompt := c.buildDraftPrompt(input, profilePack, jdPack)
	drafts := make([]Draft, len(c.cfg.DraftBackends))

	var g errgroup.Group
	for i, backendID := range c.cfg.DraftBackends {
		i, backendID := i, backendID
		g.Go(func() error {
			drafts[i] = c.draftOne(ctx, backendID, prompt, profilePack)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines report through their slots

	return drafts
}

func (c *Council) draftOne(ctx context.Context, backendID, prompt, profilePack string) Draft {
	draft := Draft{ProducerID: backendID, Status: StatusFailed}

	client, ok := c.registry.Get(backendID)
	if !ok {
		draft.Error = "backend not registered"
		return draft
	}

	started := time.Now()
	resp, err := client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   c.cfg.DraftMaxTokens,
		Temperature: draftTemperature,
	})
	draft.LatencyMS = time.Since(started).Milliseconds()

	if err != nil {
		c.log.Warn().Err(err).Str("backend", backendID).Msg("draft failed")
		draft.Error = err.Error()
		return draft
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		draft.Error = "empty draft"
		return draft
	}

	// Normalize to the required outline so ranking and export see a stable
	// shape regardless of how the model formatted its answer.
	draft.Text = resume.EnsureRequiredOutline(text, profilePack)
	draft.TokensUsed = resp.TokensUsed
	draft.Status = StatusOK
	return draft
}
