package packs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	in := "line one\t\t with   spaces\r\n\r\n\r\n\r\nline two"
	out := NormalizeText(in)
	assert.Equal(t, "line one with spaces\n\nline two", out)
}

func TestCompactText_UnderBudgetUntouched(t *testing.T) {
	out := CompactText("short text", 100)
	assert.Equal(t, "short text", out)
	assert.NotContains(t, out, "[TRUNCATED FOR BUDGET]")
}

func TestCompactText_TruncatesWithMarker(t *testing.T) {
	in := strings.Repeat("word ", 200)
	out := CompactText(in, 120)
	assert.LessOrEqual(t, len(out), 120)
	assert.True(t, strings.HasSuffix(out, "[TRUNCATED FOR BUDGET]"))
}

func TestExtractSection(t *testing.T) {
	profile := `Summary
Experienced engineer.

## Projects
- **Widget** | Go | shipped it
- **Gadget** | Postgres | scaled it

Certifications:
- AWS SAA
`
	projects := ExtractSection(profile, "Projects")
	assert.Contains(t, projects, "**Widget**")
	assert.Contains(t, projects, "**Gadget**")
	assert.NotContains(t, projects, "AWS SAA")

	certs := ExtractSection(profile, "Certifications")
	assert.Contains(t, certs, "AWS SAA")

	assert.Empty(t, ExtractSection(profile, "Hobbies"))
}

func TestBuildProfilePack_PinsDroppedSections(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Professional Experience\n")
	for i := 0; i < 500; i++ {
		sb.WriteString("- did an impactful thing with measurable outcomes\n")
	}
	sb.WriteString("\nProjects\n- **Widget** | Go | shipped it\n")
	sb.WriteString("\nCertifications\n- AWS SAA\n")

	pack := BuildProfilePack(sb.String(), 2000)
	require.Contains(t, pack, "[TRUNCATED FOR BUDGET]")
	assert.Contains(t, pack, "PINNED FROM MASTER PROFILE:")
	assert.Contains(t, pack, "**Widget**")
	assert.Contains(t, pack, "AWS SAA")
}

func TestBuildProfilePack_FullProfileNoTruncation(t *testing.T) {
	profile := "Summary\nShort profile.\n\nProjects\n- **X**\n\nCertifications\n- Y\n"
	pack := BuildProfilePack(profile, 0)
	assert.NotContains(t, pack, "[TRUNCATED FOR BUDGET]")
	assert.NotContains(t, pack, "PINNED FROM MASTER PROFILE:")
}

func TestExtractKeywords(t *testing.T) {
	jd := "We need Go and Kubernetes. Go services run on Kubernetes. Go is required. The and of in for."
	keywords := ExtractKeywords(jd, 10)

	require.NotEmpty(t, keywords)
	assert.Equal(t, "go", keywords[0]) // most frequent
	assert.Contains(t, keywords, "kubernetes")
	for _, stop := range []string{"the", "and", "of", "in", "for"} {
		assert.NotContains(t, keywords, stop)
	}
}

func TestExtractKeywords_Deterministic(t *testing.T) {
	jd := "alpha beta gamma delta alpha beta gamma delta"
	a := ExtractKeywords(jd, 10)
	b := ExtractKeywords(jd, 10)
	assert.Equal(t, a, b)
}

func TestBuildJDPack(t *testing.T) {
	pack := BuildJDPack("Senior Go Engineer. Go, Postgres, Kubernetes required.")
	assert.NotEmpty(t, pack.JDCompact)
	assert.Contains(t, pack.Keywords, "go")
	assert.LessOrEqual(t, len(pack.Keywords), DefaultMaxKeywords)
}

func TestComputeHeuristics(t *testing.T) {
	resume := `Summary
Engineer with Go and Kubernetes experience.

Education
BSc

Technical Skills
Go, Kubernetes

Professional Experience
- built services

Projects
- **X**

Certifications
N/A
`
	h := ComputeHeuristics(resume, []string{"go", "kubernetes", "terraform"})

	assert.InDelta(t, 2.0/3.0, h.KeywordHitRate, 0.001)
	assert.Equal(t, 1.0, h.SectionCompleteness)
	assert.True(t, h.HeadingsPresent["Projects"])
	assert.Equal(t, len(resume), h.LengthChars)
	assert.InDelta(t, 0.5*h.KeywordHitRate+0.5, h.PolishProxyScore(), 0.001)
}

func TestComputeHeuristics_MissingSections(t *testing.T) {
	h := ComputeHeuristics("Summary\nJust a summary.", []string{"go"})
	assert.False(t, h.HeadingsPresent["Projects"])
	assert.Less(t, h.SectionCompleteness, 1.0)
}
