// Package council implements the three-stage resume pipeline: parallel
// drafting across backends, anonymized peer ranking with Borda aggregation,
// and final synthesis.
package council

import "github.com/ashishsumanth1/Resume-Council/internal/packs"

// Draft and Vote status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunInput is the immutable request for one pipeline run. UsePeerRanking is
// tri-state: nil means "use the configured default".
type RunInput struct {
	JobDescription string
	MasterProfile  string
	CompanyDetails string
	UsePeerRanking *bool
}

// Draft is one backend's tailoring attempt. Exactly one Draft exists per
// configured draft backend per run, failed or not.
type Draft struct {
	ProducerID string `json:"model"`
	Text       string `json:"response,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Vote is one backend's ordering of the anonymized drafts, best first. A vote
// whose parsed ordering is not a complete permutation of the label set is
// marked failed and excluded from aggregation.
type Vote struct {
	VoterID  string   `json:"model"`
	Raw      string   `json:"ranking,omitempty"`
	Ordering []string `json:"parsed_ranking,omitempty"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
}

// AggregateEntry is one row of the consensus ranking, best first.
type AggregateEntry struct {
	ProducerID string `json:"model"`
	Label      string `json:"label"`
	Score      int    `json:"score"`
	Rank       int    `json:"rank"`
}

// Stage2 is the ranking stage's output. AggregateRankings is empty whenever
// the aggregator was skipped (peer ranking off, or every vote failed).
type Stage2 struct {
	Votes             []Vote            `json:"votes"`
	LabelToModel      map[string]string `json:"label_to_model,omitempty"`
	AggregateRankings []AggregateEntry  `json:"aggregate_rankings,omitempty"`
	PeerRankingUsed   bool              `json:"peer_ranking_used"`
}

// Stage3 is the final resume plus how it was produced.
type Stage3 struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Notes    string `json:"notes,omitempty"`
}

// JudgeScore is one resume's scorecard from the judge verdict.
type JudgeScore struct {
	Label           string  `json:"label"`
	KeywordCoverage float64 `json:"keyword_coverage"`
	RoleRelevance   float64 `json:"role_relevance"`
	Truthfulness    float64 `json:"truthfulness"`
	Formatting      float64 `json:"formatting"`
	Overall         float64 `json:"overall"`
	Notes           string  `json:"notes,omitempty"`
}

// JudgeVerdict is the judge backend's structured scoring of the drafts. It is
// advisory: it never changes which draft feeds synthesis.
type JudgeVerdict struct {
	Scores            []JudgeScore `json:"scores"`
	Winner            string       `json:"winner"`
	FinalRanking      []string     `json:"final_ranking"`
	UnsupportedClaims []string     `json:"unsupported_claims,omitempty"`
}

// Metadata carries run-level context alongside the stage outputs.
type Metadata struct {
	ProfilePackChars  int               `json:"profile_pack_chars"`
	Keywords          []string          `json:"keywords,omitempty"`
	FinalHeuristics   *packs.Heuristics `json:"final_heuristics,omitempty"`
	RankingDegraded   bool              `json:"ranking_degraded,omitempty"`
	SelfVotesExcluded bool              `json:"self_votes_excluded"`
	JudgeVerdict      *JudgeVerdict     `json:"judge_verdict,omitempty"`
	DurationMS        int64             `json:"duration_ms"`
}

// RunResult is the complete outcome of one run. It is immutable once
// returned; persistence happens outside the pipeline and only on full
// success.
type RunResult struct {
	Stage1   []Draft  `json:"stage1"`
	Stage2   Stage2   `json:"stage2"`
	Stage3   Stage3   `json:"stage3"`
	Metadata Metadata `json:"metadata"`
}
