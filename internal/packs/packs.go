// Package packs builds compact, token-saving context packs from raw inputs:
// a profile facts pack from the master profile and a JD pack from the job
// description.
package packs

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultProfileMaxChars bounds the profile pack unless the caller sends
	// the full profile.
	DefaultProfileMaxChars = 60000
	// DefaultJDMaxChars bounds the compacted job description.
	DefaultJDMaxChars = 3500
	// DefaultMaxKeywords caps extracted ATS keywords.
	DefaultMaxKeywords = 40

	// truncationMarker is appended when a pack was cut to fit its budget.
	truncationMarker = "\n\n[TRUNCATED FOR BUDGET]"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	tokenWords  = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.#/-]{1,}`)
	headingTrim = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "for": {},
	"a": {}, "an": {}, "on": {}, "with": {}, "as": {}, "at": {}, "by": {},
	"is": {}, "are": {}, "be": {}, "this": {}, "that": {}, "you": {}, "we": {},
	"our": {}, "your": {}, "from": {}, "will": {}, "must": {}, "should": {},
	"can": {}, "may": {}, "have": {}, "has": {}, "had": {}, "i": {}, "me": {},
	"my": {}, "their": {}, "they": {}, "it": {}, "its": {}, "into": {},
	"over": {}, "within": {}, "across": {}, "etc": {},
}

// NormalizeText collapses whitespace without truncating.
func NormalizeText(text string) string {
	t := strings.TrimSpace(headingTrim.Replace(text))
	t = spaceRuns.ReplaceAllString(t, " ")
	t = blankRuns.ReplaceAllString(t, "\n\n")
	return t
}

// CompactText normalizes whitespace and truncates to maxChars, marking the
// cut so downstream models know content is missing.
func CompactText(text string, maxChars int) string {
	t := NormalizeText(text)
	if maxChars <= 0 || len(t) <= maxChars {
		return t
	}
	cut := maxChars - len(truncationMarker)
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(t[:cut], " \n") + truncationMarker
}

// knownHeadings are the section names recognized when scanning a profile.
var knownHeadings = map[string]struct{}{
	"summary":                 {},
	"education":               {},
	"technical skills":        {},
	"skills":                  {},
	"professional experience": {},
	"experience":              {},
	"projects":                {},
	"certifications":          {},
}

// normalizeHeading strips markdown markers and trailing punctuation from a
// candidate heading line.
func normalizeHeading(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ":-–— ")
	return strings.ToLower(s)
}

// ExtractSection extracts a section by heading name from markdown or plain
// text, best effort. Returns "" when the heading is not found.
func ExtractSection(text, sectionName string) string {
	lines := strings.Split(headingTrim.Replace(text), "\n")
	target := strings.ToLower(strings.TrimSpace(sectionName))

	start := -1
	for i, line := range lines {
		if normalizeHeading(line) == target {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	out := []string{strings.TrimSpace(lines[start])}
	for _, line := range lines[start+1:] {
		if _, isHeading := knownHeadings[normalizeHeading(line)]; isHeading {
			break
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// BuildProfilePack produces the compact truth source for a run. maxChars <= 0
// sends the full (normalized) profile. Projects and Certifications sections
// are pinned: if truncation dropped them, they are re-appended so models do
// not conclude they are absent.
func BuildProfilePack(masterProfile string, maxChars int) string {
	var base string
	if maxChars <= 0 {
		base = NormalizeText(masterProfile)
	} else {
		base = CompactText(masterProfile, maxChars)
	}

	var pinned []string
	for _, name := range []string{"Projects", "Certifications"} {
		if extracted := ExtractSection(masterProfile, name); extracted != "" {
			pinned = append(pinned, extracted)
		}
	}
	if len(pinned) == 0 {
		return base
	}

	lowerBase := strings.ToLower(base)
	needAppend := !strings.Contains(lowerBase, "projects") || !strings.Contains(lowerBase, "certifications")
	if !needAppend {
		return base
	}
	return base + "\n\n---\nPINNED FROM MASTER PROFILE:\n" + strings.Join(pinned, "\n\n")
}

// ExtractKeywords pulls the most frequent technical-looking tokens from text,
// stopword-filtered, preferring longer tokens on equal counts.
func ExtractKeywords(text string, maxKeywords int) []string {
	tokens := tokenWords.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop || len(tok) < 2 {
			continue
		}
		counts[tok]++
	}

	ranked := make([]string, 0, len(counts))
	for word := range counts {
		ranked = append(ranked, word)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		if len(ranked[i]) != len(ranked[j]) {
			return len(ranked[i]) > len(ranked[j])
		}
		return ranked[i] < ranked[j]
	})

	if maxKeywords > 0 && len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}
	return ranked
}

// JDPack is the compacted job description plus its extracted ATS keywords.
type JDPack struct {
	JDCompact string   `json:"jd_compact"`
	Keywords  []string `json:"keywords"`
}

// BuildJDPack compacts a job description and extracts its keywords.
func BuildJDPack(jobDescription string) JDPack {
	compact := CompactText(jobDescription, DefaultJDMaxChars)
	return JDPack{
		JDCompact: compact,
		Keywords:  ExtractKeywords(compact, DefaultMaxKeywords),
	}
}
