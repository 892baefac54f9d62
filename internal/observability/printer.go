// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/ashishsumanth1/Resume-Council/internal/council"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDrafts outputs a per-backend summary of the drafting stage.
func (p *Printer) PrintDrafts(drafts []council.Draft) {
	if len(drafts) == 0 {
		return
	}

	ok := 0
	for _, d := range drafts {
		if d.Status == council.StatusOK {
			ok++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Drafts: %d of %d succeeded\n\n", ok, len(drafts)))

	for i, d := range drafts {
		if d.Status == council.StatusOK {
			sb.WriteString(fmt.Sprintf("✓ %s\n", d.ProducerID))
			sb.WriteString(fmt.Sprintf("  %d tokens, %dms\n", d.TokensUsed, d.LatencyMS))
		} else {
			errText := d.Error
			if len(errText) > 45 {
				errText = errText[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("✗ %s\n", d.ProducerID))
			sb.WriteString(fmt.Sprintf("  %s\n", errText))
		}
		if i < len(drafts)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("STAGE 1: COUNCIL DRAFTS", sb.String())
}

// PrintRanking outputs the peer ranking results with the label-to-model
// mapping revealed.
func (p *Printer) PrintRanking(stage2 council.Stage2) {
	if !stage2.PeerRankingUsed && len(stage2.Votes) == 0 {
		p.printBox("STAGE 2: PEER RANKING", "Peer ranking skipped")
		return
	}

	var sb strings.Builder
	if stage2.PeerRankingUsed {
		sb.WriteString("Peer ranking applied\n\n")
	} else {
		sb.WriteString("Peer ranking degraded (no usable votes)\n\n")
	}

	count := min(len(stage2.AggregateRankings), maxItemsToShow)
	for i := 0; i < count; i++ {
		entry := stage2.AggregateRankings[i]
		sb.WriteString(fmt.Sprintf("#%d  %s (%s)\n", entry.Rank, entry.Label, entry.ProducerID))
		sb.WriteString(fmt.Sprintf("    Borda score: %d\n", entry.Score))
	}
	if len(stage2.AggregateRankings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(stage2.AggregateRankings)-maxItemsToShow))
	}

	failed := 0
	for _, v := range stage2.Votes {
		if v.Status != council.StatusOK {
			failed++
		}
	}
	if failed > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠ %d of %d votes discarded\n", failed, len(stage2.Votes)))
	}

	p.printBox("STAGE 2: PEER RANKING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFinal outputs the synthesis result and run metadata.
func (p *Printer) PrintFinal(stage3 council.Stage3, meta council.Metadata) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Model:  %s\n", stage3.Model))
	if stage3.Notes != "" {
		sb.WriteString(fmt.Sprintf("Notes:  %s\n", stage3.Notes))
	}
	sb.WriteString(fmt.Sprintf("Length: %d chars\n", len(stage3.Response)))

	if meta.FinalHeuristics != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Keyword hit rate:     %.2f\n", meta.FinalHeuristics.KeywordHitRate))
		sb.WriteString(fmt.Sprintf("Section completeness: %.2f\n", meta.FinalHeuristics.SectionCompleteness))
	}

	if len(meta.Keywords) > 0 {
		keywords := strings.Join(meta.Keywords, ", ")
		if len(keywords) > 45 {
			keywords = keywords[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("\nKeywords: %s\n", keywords))
	}
	if meta.RankingDegraded {
		sb.WriteString("\n⚠ Ranking degraded; fell back to first draft\n")
	}
	sb.WriteString(fmt.Sprintf("\nTotal time: %dms", meta.DurationMS))

	p.printBox("STAGE 3: FINAL RESUME", sb.String())
}
