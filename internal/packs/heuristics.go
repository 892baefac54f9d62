package packs

import (
	"math"
	"strings"
)

// RequiredHeadings are the sections every tailored resume must carry, in
// presentation order.
var RequiredHeadings = []string{
	"Summary",
	"Education",
	"Technical Skills",
	"Professional Experience",
	"Projects",
	"Certifications",
}

// Heuristics are cheap code-computed signals about one resume draft. They
// feed the judge prompt and gate the premium polish call.
type Heuristics struct {
	KeywordHits         []string        `json:"keyword_hits"`
	KeywordHitRate      float64         `json:"keyword_hit_rate"`
	HeadingsPresent     map[string]bool `json:"headings_present"`
	SectionCompleteness float64         `json:"section_completeness"`
	LengthChars         int             `json:"length_chars"`
}

// ComputeHeuristics scores a resume draft against the JD keywords.
func ComputeHeuristics(resumeMarkdown string, jdKeywords []string) Heuristics {
	text := strings.ToLower(resumeMarkdown)

	var hits []string
	for _, kw := range jdKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	denom := len(jdKeywords)
	if denom == 0 {
		denom = 1
	}
	hitRate := float64(len(hits)) / float64(denom)

	present := make(map[string]bool, len(RequiredHeadings))
	found := 0
	for _, h := range RequiredHeadings {
		ok := strings.Contains(text, strings.ToLower(h))
		present[h] = ok
		if ok {
			found++
		}
	}
	completeness := float64(found) / float64(len(RequiredHeadings))

	return Heuristics{
		KeywordHits:         hits,
		KeywordHitRate:      round3(hitRate),
		HeadingsPresent:     present,
		SectionCompleteness: round3(completeness),
		LengthChars:         len(resumeMarkdown),
	}
}

// PolishProxyScore blends keyword coverage and section completeness into the
// single score compared against the polish threshold.
func (h Heuristics) PolishProxyScore() float64 {
	return 0.5*h.KeywordHitRate + 0.5*h.SectionCompleteness
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
