package council

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ashishsumanth1/Resume-Council/internal/llm"
	"github.com/ashishsumanth1/Resume-Council/internal/packs"
	"github.com/ashishsumanth1/Resume-Council/internal/prompts"
	"github.com/ashishsumanth1/Resume-Council/internal/schemas"
)

const (
	rankingTemperature = 0.2
	judgeTemperature   = 0.2
)

var (
	finalRankingHeader = regexp.MustCompile(`(?i)FINAL RANKING\s*:?`)
	rankedLine         = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(Response [A-Z]+)\s*$`)
	labelMention       = regexp.MustCompile(`Response [A-Z]+`)
)

// resumeBlocks renders the anonymized drafts for a ranking or judge prompt.
// Only labels and text appear; producer identity stays out of every prompt.
func resumeBlocks(labels *LabelSet, drafts []Draft) string {
	byProducer := make(map[string]string, len(drafts))
	for _, d := range drafts {
		byProducer[d.ProducerID] = d.Text
	}

	var blocks []string
	for _, label := range labels.Labels() {
		producer, _ := labels.Producer(label)
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", label, byProducer[producer]))
	}
	return strings.Join(blocks, "\n\n")
}

// parseFinalRanking pulls the ordered labels out of a ranker's free-text
// answer. It prefers the numbered list after the last FINAL RANKING header;
// when no header is present it falls back to any numbered label lines, then
// to bare label mentions in order of appearance.
func parseFinalRanking(text string) []string {
	section := text
	if locs := finalRankingHeader.FindAllStringIndex(text, -1); len(locs) > 0 {
		section = text[locs[len(locs)-1][1]:]
	}

	var out []string
	for _, m := range rankedLine.FindAllStringSubmatch(section, -1) {
		out = append(out, m[1])
	}
	if len(out) > 0 {
		return out
	}
	return labelMention.FindAllString(section, -1)
}

// normalizeOrdering deduplicates a parsed ordering and drops labels that do
// not belong to this run, preserving order.
func normalizeOrdering(parsed []string, labels *LabelSet) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, label := range parsed {
		if !labels.Contains(label) {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

func (c *Council) buildRankingPrompt(blocks, profilePack string, jdPack packs.JDPack) string {
	return prompts.Format(prompts.MustGet("council.json", "peer-ranking"), map[string]string{
		"StyleGuide":   c.styleGuide(),
		"ProfilePack":  profilePack,
		"JDCompact":    jdPack.JDCompact,
		"Keywords":     strings.Join(jdPack.Keywords, ", "),
		"ResumeBlocks": blocks,
	})
}

// runPeerRanking asks every eligible ranking backend to order the anonymized
// drafts. With self-vote exclusion on, a backend whose own draft is in the
// batch abstains entirely. Votes fail independently; a vote is valid only
// when its parsed ordering is a complete permutation of the label set.
func (c *Council) runPeerRanking(ctx context.Context, labels *LabelSet, drafts []Draft, profilePack string, jdPack packs.JDPack) []Vote {
	var voters []string
	for _, id := range c.cfg.RankingBackends {
		if c.cfg.ExcludeSelfVotes {
			if _, hasDraft := labels.Label(id); hasDraft {
				continue
			}
		}
		voters = append(voters, id)
	}
	if len(voters) == 0 {
		return nil
	}

	prompt := c.buildRankingPrompt(resumeBlocks(labels, drafts), profilePack, jdPack)
	votes := make([]Vote, len(voters))

	var g errgroup.Group
	for i, voterID := range voters {
		i, voterID := i, voterID
		g.Go(func() error {
			votes[i] = c.voteOne(ctx, voterID, prompt, labels)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines report through their slots

	return votes
}

func (c *Council) voteOne(ctx context.Context, voterID, prompt string, labels *LabelSet) Vote {
	vote := Vote{VoterID: voterID, Status: StatusFailed}

	client, ok := c.registry.Get(voterID)
	if !ok {
		vote.Error = "backend not registered"
		return vote
	}

	resp, err := client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   c.cfg.RankingMaxTokens,
		Temperature: rankingTemperature,
	})
	if err != nil {
		c.log.Warn().Err(err).Str("backend", voterID).Msg("ranking vote failed")
		vote.Error = err.Error()
		return vote
	}

	vote.Raw = strings.TrimSpace(resp.Text)
	ordering := normalizeOrdering(parseFinalRanking(vote.Raw), labels)
	if len(ordering) != labels.Len() {
		vote.Error = fmt.Sprintf("incomplete ordering: got %d of %d labels", len(ordering), labels.Len())
		return vote
	}

	vote.Ordering = ordering
	vote.Status = StatusOK
	return vote
}

func (c *Council) buildJudgePrompt(blocks, profilePack string, jdPack packs.JDPack, heuristics map[string]packs.Heuristics) string {
	heurJSON, err := json.Marshal(heuristics)
	if err != nil {
		heurJSON = []byte("{}")
	}
	return prompts.Format(prompts.MustGet("council.json", "judge"), map[string]string{
		"StyleGuide":   c.styleGuide(),
		"ProfilePack":  profilePack,
		"JDCompact":    jdPack.JDCompact,
		"Heuristics":   string(heurJSON),
		"ResumeBlocks": blocks,
	})
}

// runJudge asks the judge backend for a structured verdict over the
// anonymized drafts, validated against the verdict schema. The verdict is
// advisory: candidate selection never depends on it.
func (c *Council) runJudge(ctx context.Context, labels *LabelSet, drafts []Draft, profilePack string, jdPack packs.JDPack) (*JudgeVerdict, error) {
	client, ok := c.registry.Get(c.cfg.JudgeBackend)
	if !ok {
		return nil, fmt.Errorf("judge backend %s not registered", c.cfg.JudgeBackend)
	}

	heuristics := make(map[string]packs.Heuristics, labels.Len())
	byProducer := make(map[string]string, len(drafts))
	for _, d := range drafts {
		byProducer[d.ProducerID] = d.Text
	}
	for _, label := range labels.Labels() {
		producer, _ := labels.Producer(label)
		heuristics[label] = packs.ComputeHeuristics(byProducer[producer], jdPack.Keywords)
	}

	prompt := c.buildJudgePrompt(resumeBlocks(labels, drafts), profilePack, jdPack, heuristics)
	resp, err := client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   c.cfg.JudgeMaxTokens,
		Temperature: judgeTemperature,
	})
	if err != nil {
		return nil, err
	}

	raw := llm.CleanJSONBlock(resp.Text)
	if err := schemas.ValidateJudgeVerdict(raw); err != nil {
		return nil, fmt.Errorf("judge verdict rejected: %w", err)
	}

	var verdict JudgeVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("judge verdict unmarshal: %w", err)
	}
	verdict.FinalRanking = normalizeOrdering(verdict.FinalRanking, labels)
	return &verdict, nil
}
