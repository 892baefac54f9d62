package council

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashishsumanth1/Resume-Council/internal/config"
	"github.com/ashishsumanth1/Resume-Council/internal/llm"
)

type replyFunc func(req llm.Request) (*llm.Response, error)

func textReply(text string) replyFunc {
	return func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: text, TokensUsed: 100}, nil
	}
}

func errReply(err error) replyFunc {
	return func(llm.Request) (*llm.Response, error) { return nil, err }
}

// scriptedClient answers each Generate call with the next scripted reply,
// recording every prompt it sees. Stages run sequentially, so a backend that
// both drafts and votes sees its draft call first.
type scriptedClient struct {
	mu      sync.Mutex
	model   string
	replies []replyFunc
	calls   int
	prompts []string
}

func newScripted(model string, replies ...replyFunc) *scriptedClient {
	return &scriptedClient{model: model, replies: replies}
}

func (s *scriptedClient) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	idx := s.calls
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	s.calls++
	reply := s.replies[idx]
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reply(req)
}

func (s *scriptedClient) Model() string { return s.model }
func (s *scriptedClient) Close() error  { return nil }

func (s *scriptedClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedClient) seenPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

func completeDraft(marker string) string {
	return `Summary
Backend engineer known for ` + marker + `.

Education
BSc Computer Science

Technical Skills
Go, Postgres

Professional Experience
- built ` + marker + ` service

Projects
- **` + marker + `** | Go | shipped it

Certifications
N/A
`
}

func rankingReply(ordered ...string) replyFunc {
	var sb strings.Builder
	sb.WriteString("Brief feedback per resume.\n\nFINAL RANKING:\n")
	for i, label := range ordered {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, label)
	}
	return textReply(sb.String())
}

func buildRegistry(t *testing.T, order []string, clients map[string]*scriptedClient) *llm.Registry {
	t.Helper()
	reg := llm.NewRegistry()
	for _, id := range order {
		require.NoError(t, reg.Register(id, clients[id]))
	}
	return reg
}

func baseInput() RunInput {
	return RunInput{
		JobDescription: "Senior Go Engineer. Go, Postgres, Kubernetes required.",
		MasterProfile:  completeDraft("history"),
		CompanyDetails: "Remote-first infrastructure company.",
	}
}

func boolPtr(b bool) *bool { return &b }

func TestRun_PeerRankingHappyPath(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha")), rankingReply("Response B", "Response A", "Response C")),
		"beta":  newScripted("beta", textReply(completeDraft("beta")), rankingReply("Response B", "Response C", "Response A")),
		"gamma": newScripted("gamma", textReply(completeDraft("gamma")), rankingReply("Response B", "Response A", "Response C")),
	}
	order := []string{"alpha", "beta", "gamma"}
	c := New(buildRegistry(t, order, clients), Config{
		DraftBackends:         order,
		RankingBackends:       order,
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	require.Len(t, result.Stage1, 3)
	assert.True(t, result.Stage2.PeerRankingUsed)
	assert.Len(t, result.Stage2.Votes, 3)
	require.NotEmpty(t, result.Stage2.AggregateRankings)
	assert.Equal(t, "Response B", result.Stage2.AggregateRankings[0].Label)
	assert.Equal(t, "beta", result.Stage2.AggregateRankings[0].ProducerID)
	assert.Equal(t, "beta", result.Stage2.LabelToModel["Response B"])

	// Threshold 0 and a complete winning draft: no premium polish.
	assert.Equal(t, "beta", result.Stage3.Model)
	assert.Contains(t, result.Stage3.Response, "beta")
	assert.Contains(t, result.Stage3.Notes, "no premium polish")
	assert.False(t, result.Metadata.RankingDegraded)
}

func TestRun_AllDraftsFail(t *testing.T) {
	boom := errors.New("backend down")
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", errReply(boom)),
		"beta":  newScripted("beta", errReply(boom)),
		"judge": newScripted("judge", textReply("unused")),
	}
	c := New(buildRegistry(t, []string{"alpha", "beta", "judge"}, clients), Config{
		DraftBackends:         []string{"alpha", "beta"},
		RankingBackends:       []string{"alpha", "beta"},
		PolishBackend:         "judge",
		UsePeerRankingDefault: true,
	}, zerolog.Nop())

	_, err := c.Run(context.Background(), baseInput())
	require.Error(t, err)

	var allFailed *AllProvidersFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Equal(t, []string{"alpha", "beta"}, allFailed.Backends)

	// No ranking or synthesis calls after total draft failure.
	assert.Equal(t, 1, clients["alpha"].callCount())
	assert.Equal(t, 1, clients["beta"].callCount())
	assert.Equal(t, 0, clients["judge"].callCount())
}

func TestRun_TieBrokenByLabel(t *testing.T) {
	// Three backends, the middle one fails to draft. The two survivors vote
	// in mirrored order, tying the Borda scores; ascending label decides, so
	// Response A (the first surviving backend) wins synthesis.
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha")), rankingReply("Response B", "Response A")),
		"beta":  newScripted("beta", errReply(errors.New("timeout"))),
		"gamma": newScripted("gamma", textReply(completeDraft("gamma")), rankingReply("Response A", "Response B")),
	}
	order := []string{"alpha", "beta", "gamma"}
	c := New(buildRegistry(t, order, clients), Config{
		DraftBackends:         order,
		RankingBackends:       []string{"alpha", "gamma"},
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	require.Len(t, result.Stage2.AggregateRankings, 2)
	assert.Equal(t, result.Stage2.AggregateRankings[0].Score, result.Stage2.AggregateRankings[1].Score)
	assert.Equal(t, "Response A", result.Stage2.AggregateRankings[0].Label)
	assert.Equal(t, "alpha", result.Stage3.Model)
	assert.Contains(t, result.Stage3.Response, "alpha")

	// The failed backend is still reported, and never voted.
	require.Len(t, result.Stage1, 3)
	assert.Equal(t, StatusFailed, result.Stage1[1].Status)
	assert.Equal(t, 1, clients["beta"].callCount())
}

func TestRun_AllVotesFailDegradesGracefully(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha")), errReply(errors.New("rate limited"))),
		"beta":  newScripted("beta", textReply(completeDraft("beta")), textReply("no ranking to be found here")),
	}
	order := []string{"alpha", "beta"}
	c := New(buildRegistry(t, order, clients), Config{
		DraftBackends:         order,
		RankingBackends:       order,
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	// Requested but unusable: recorded as not used, run completes on the
	// first successful draft in configuration order.
	assert.False(t, result.Stage2.PeerRankingUsed)
	assert.True(t, result.Metadata.RankingDegraded)
	assert.Empty(t, result.Stage2.AggregateRankings)
	assert.Len(t, result.Stage2.Votes, 2)
	for _, v := range result.Stage2.Votes {
		assert.Equal(t, StatusFailed, v.Status)
	}
	assert.Equal(t, "alpha", result.Stage3.Model)
}

func TestRun_PeerRankingOff(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha"))),
		"beta":  newScripted("beta", textReply(completeDraft("beta"))),
	}
	order := []string{"alpha", "beta"}
	c := New(buildRegistry(t, order, clients), Config{
		DraftBackends:         order,
		RankingBackends:       order,
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), RunInput{
		JobDescription: baseInput().JobDescription,
		MasterProfile:  baseInput().MasterProfile,
		UsePeerRanking: boolPtr(false),
	})
	require.NoError(t, err)

	assert.False(t, result.Stage2.PeerRankingUsed)
	assert.Empty(t, result.Stage2.AggregateRankings)
	assert.Empty(t, result.Stage2.Votes)
	assert.Equal(t, "alpha", result.Stage3.Model)

	// One draft call each, zero ranking calls.
	assert.Equal(t, 1, clients["alpha"].callCount())
	assert.Equal(t, 1, clients["beta"].callCount())
}

func TestRun_JudgeVerdictWhenRankingOff(t *testing.T) {
	verdict := `{"scores":[{"label":"Response A","keyword_coverage":80,"role_relevance":75,"truthfulness":95,"formatting":85,"overall":84,"notes":"solid"},{"label":"Response B","keyword_coverage":70,"role_relevance":72,"truthfulness":90,"formatting":80,"overall":78}],"winner":"Response B","final_ranking":["Response B","Response A"],"unsupported_claims":[]}`
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha"))),
		"beta":  newScripted("beta", textReply(completeDraft("beta"))),
		"judge": newScripted("judge", textReply("```json\n"+verdict+"\n```")),
	}
	c := New(buildRegistry(t, []string{"alpha", "beta", "judge"}, clients), Config{
		DraftBackends:         []string{"alpha", "beta"},
		JudgeBackend:          "judge",
		PolishBackend:         "alpha",
		UsePeerRankingDefault: false,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotNil(t, result.Metadata.JudgeVerdict)
	assert.Equal(t, "Response B", result.Metadata.JudgeVerdict.Winner)
	assert.Equal(t, []string{"Response B", "Response A"}, result.Metadata.JudgeVerdict.FinalRanking)

	// Advisory only: the candidate is still the first successful draft.
	assert.Equal(t, "alpha", result.Stage3.Model)
}

func TestRun_InvalidJudgeVerdictIgnored(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha"))),
		"judge": newScripted("judge", textReply(`{"winner":"Response A"}`)),
	}
	c := New(buildRegistry(t, []string{"alpha", "judge"}, clients), Config{
		DraftBackends:   []string{"alpha"},
		JudgeBackend:    "judge",
		PolishBackend:   "alpha",
		PolishThreshold: 0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)
	assert.Nil(t, result.Metadata.JudgeVerdict)
	assert.Equal(t, "alpha", result.Stage3.Model)
}

func TestRun_RankingPromptsOmitProducerIdentity(t *testing.T) {
	producers := []string{"openai/gpt-5.1", "google/gemini-3-pro-preview", "x-ai/grok-4"}
	clients := map[string]*scriptedClient{}
	for i, id := range producers {
		clients[id] = newScripted(id,
			textReply(completeDraft(fmt.Sprintf("marker-%d", i+1))),
			rankingReply("Response A", "Response B", "Response C"))
	}
	c := New(buildRegistry(t, producers, clients), Config{
		DraftBackends:         producers,
		RankingBackends:       producers,
		PolishBackend:         producers[0],
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	_, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	for _, id := range producers {
		prompts := clients[id].seenPrompts()
		require.Len(t, prompts, 2)
		rankingPrompt := prompts[1]
		for _, producer := range producers {
			assert.NotContains(t, rankingPrompt, producer, "ranking prompt leaks producer identity")
		}
		assert.NotContains(t, rankingPrompt, "label_to_model")
	}
}

func TestRun_SelfVoteExclusion(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha":  newScripted("alpha", textReply(completeDraft("alpha"))),
		"beta":   newScripted("beta", textReply(completeDraft("beta"))),
		"critic": newScripted("critic", rankingReply("Response B", "Response A")),
	}
	c := New(buildRegistry(t, []string{"alpha", "beta", "critic"}, clients), Config{
		DraftBackends:         []string{"alpha", "beta"},
		RankingBackends:       []string{"alpha", "beta", "critic"},
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		ExcludeSelfVotes:      true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	// Only the non-drafting backend votes.
	require.Len(t, result.Stage2.Votes, 1)
	assert.Equal(t, "critic", result.Stage2.Votes[0].VoterID)
	assert.True(t, result.Stage2.PeerRankingUsed)
	assert.True(t, result.Metadata.SelfVotesExcluded)
	assert.Equal(t, 1, clients["alpha"].callCount())
	assert.Equal(t, 1, clients["beta"].callCount())
	assert.Equal(t, "beta", result.Stage3.Model)
}

func TestRun_SelfVoteExclusionWithNoOutsideVoters(t *testing.T) {
	// Every eligible voter drafted, so everyone abstains and ranking
	// degrades to the fallback candidate.
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha"))),
		"beta":  newScripted("beta", textReply(completeDraft("beta"))),
	}
	order := []string{"alpha", "beta"}
	c := New(buildRegistry(t, order, clients), Config{
		DraftBackends:         order,
		RankingBackends:       order,
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		ExcludeSelfVotes:      true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Empty(t, result.Stage2.Votes)
	assert.False(t, result.Stage2.PeerRankingUsed)
	assert.True(t, result.Metadata.RankingDegraded)
	assert.Equal(t, "alpha", result.Stage3.Model)
}

func TestRun_DefaultConfigBackendsAllVote(t *testing.T) {
	// The shipped defaults use the same backends for drafting and ranking,
	// so every voter's own draft is in the batch. Self-votes are allowed by
	// default; peer ranking must actually run, not degrade.
	cfg := config.Defaults()
	labels := []string{"Response A", "Response B", "Response C", "Response D"}

	clients := map[string]*scriptedClient{}
	for i, id := range cfg.DraftModels {
		clients[id] = newScripted(id,
			textReply(completeDraft(fmt.Sprintf("marker-%d", i+1))),
			rankingReply(labels...))
	}
	c := New(buildRegistry(t, cfg.DraftModels, clients), Config{
		DraftBackends:         cfg.DraftModels,
		RankingBackends:       cfg.RankingModels,
		PolishBackend:         cfg.PolishModel,
		UsePeerRankingDefault: cfg.UsePeerRanking,
		ExcludeSelfVotes:      cfg.ExcludeSelfVotes,
		PolishThreshold:       0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	require.Len(t, result.Stage2.Votes, len(cfg.RankingModels))
	for _, v := range result.Stage2.Votes {
		assert.Equal(t, StatusOK, v.Status)
	}
	assert.True(t, result.Stage2.PeerRankingUsed)
	assert.False(t, result.Metadata.RankingDegraded)
	assert.False(t, result.Metadata.SelfVotesExcluded)
	assert.NotEmpty(t, result.Stage2.AggregateRankings)
}

func TestRun_SynthesisFailureIsFatal(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha":  newScripted("alpha", textReply(completeDraft("alpha"))),
		"polish": newScripted("polish", errReply(errors.New("model unavailable"))),
	}
	c := New(buildRegistry(t, []string{"alpha", "polish"}, clients), Config{
		DraftBackends:   []string{"alpha"},
		PolishBackend:   "polish",
		PolishThreshold: 2.0, // force the polish call
	}, zerolog.Nop())

	_, err := c.Run(context.Background(), baseInput())
	require.Error(t, err)

	var synthErr *SynthesisFailedError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "polish", synthErr.Backend)
}

func TestRun_PolishApplied(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha":  newScripted("alpha", textReply(completeDraft("alpha"))),
		"polish": newScripted("polish", textReply(completeDraft("polished"))),
	}
	c := New(buildRegistry(t, []string{"alpha", "polish"}, clients), Config{
		DraftBackends:   []string{"alpha"},
		PolishBackend:   "polish",
		PolishThreshold: 2.0,
	}, zerolog.Nop())

	result, err := c.Run(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, "polish", result.Stage3.Model)
	assert.Contains(t, result.Stage3.Response, "polished")
	assert.Contains(t, result.Stage3.Notes, "Premium polish applied")
	require.NotNil(t, result.Metadata.FinalHeuristics)
}

func TestRun_ProgressEvents(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha")), rankingReply("Response A")),
	}
	c := New(buildRegistry(t, []string{"alpha"}, clients), Config{
		DraftBackends:         []string{"alpha"},
		RankingBackends:       []string{"alpha"},
		PolishBackend:         "alpha",
		UsePeerRankingDefault: true,
		PolishThreshold:       0,
	}, zerolog.Nop())

	var stages []string
	_, err := c.RunWithProgress(context.Background(), baseInput(), func(stage string, payload any) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"stage1_start", "stage1_complete",
		"stage2_start", "stage2_complete",
		"stage3_start", "stage3_complete",
	}, stages)
}

func TestRun_CancelledContext(t *testing.T) {
	clients := map[string]*scriptedClient{
		"alpha": newScripted("alpha", textReply(completeDraft("alpha"))),
	}
	c := New(buildRegistry(t, []string{"alpha"}, clients), Config{
		DraftBackends: []string{"alpha"},
		PolishBackend: "alpha",
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx, baseInput())
	require.Error(t, err)

	// The cancellation surfaces as such, not as a provider outage.
	assert.ErrorIs(t, err, context.Canceled)
	var allFailed *AllProvidersFailedError
	assert.False(t, errors.As(err, &allFailed))
}
