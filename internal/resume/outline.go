// Package resume enforces the required markdown outline on model output.
// Models occasionally drop sections or truncate mid-bullet; everything that
// leaves the pipeline passes through EnsureRequiredOutline first.
package resume

import (
	"regexp"
	"strings"

	"github.com/ashishsumanth1/Resume-Council/internal/packs"
)

const maxBulletChars = 180

var trailingBold = regexp.MustCompile(`\*\*$`)

// LooksTruncated reports whether raw model output appears cut off mid-markdown
// (a dangling bold marker at the end of the text).
func LooksTruncated(markdown string) bool {
	return trailingBold.MatchString(strings.TrimSpace(markdown))
}

// MissingRequiredSections reports whether any required heading is absent from
// the text.
func MissingRequiredSections(markdown string) bool {
	lower := strings.ToLower(markdown)
	for _, h := range packs.RequiredHeadings {
		if !strings.Contains(lower, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

func normalizeHeading(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ":-–— ")
	return strings.ToLower(s)
}

// SplitSections buckets resume lines under the required heading that precedes
// them. Lines before the first recognized heading are dropped.
func SplitSections(markdown string) map[string][]string {
	text := strings.ReplaceAll(markdown, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		norm := normalizeHeading(line)
		matched := ""
		for _, h := range packs.RequiredHeadings {
			if norm == strings.ToLower(h) {
				matched = h
				break
			}
		}
		if matched != "" {
			current = matched
			if _, ok := sections[current]; !ok {
				sections[current] = []string{}
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], strings.TrimRight(line, " \t"))
		}
	}
	return sections
}

func effectivelyEmpty(lines []string) bool {
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	content := strings.TrimSpace(strings.Join(kept, "\n"))
	return content == "" || strings.EqualFold(content, "n/a")
}

// coerceBullets normalizes bullet markers to "-" and clamps very long bullets
// so they do not spill across lines in rendered output.
func coerceBullets(lines []string, maxLines int) []string {
	var out []string
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "•") {
			s = "- " + strings.TrimSpace(strings.TrimLeft(s, "•"))
		}
		if strings.HasPrefix(s, "*") && !strings.HasPrefix(s, "**") {
			s = "- " + strings.TrimSpace(strings.TrimLeft(s, "*"))
		}
		if len(s) > maxBulletChars {
			s = strings.TrimRight(s[:maxBulletChars-3], " ") + "..."
		}
		out = append(out, s)
		if len(out) >= maxLines {
			break
		}
	}
	return out
}

// EnsureRequiredOutline rebuilds a resume so every required section is present
// in canonical order. Missing sections get "N/A"; empty Projects and
// Certifications are backfilled from the profile pack so truthful content is
// not lost to a lazy draft.
func EnsureRequiredOutline(markdown, profilePack string) string {
	sections := SplitSections(markdown)

	for _, heading := range packs.RequiredHeadings {
		if _, ok := sections[heading]; !ok {
			sections[heading] = []string{"N/A"}
		}
	}

	for _, heading := range []string{"Projects", "Certifications"} {
		if !effectivelyEmpty(sections[heading]) {
			continue
		}
		extracted := strings.TrimSpace(packs.ExtractSection(profilePack, heading))
		if extracted != "" {
			lines := strings.Split(extracted, "\n")
			if len(lines) > 1 {
				lines = lines[1:]
			} else {
				lines = nil
			}
			if bullets := coerceBullets(lines, 3); len(bullets) > 0 {
				sections[heading] = bullets
				continue
			}
		}
		sections[heading] = []string{"N/A"}
	}

	var rebuilt []string
	for _, heading := range packs.RequiredHeadings {
		rebuilt = append(rebuilt, heading)
		content := sections[heading]
		if effectivelyEmpty(content) {
			content = []string{"N/A"}
		}
		for len(content) > 0 && strings.TrimSpace(content[0]) == "" {
			content = content[1:]
		}
		for len(content) > 0 && strings.TrimSpace(content[len(content)-1]) == "" {
			content = content[:len(content)-1]
		}
		for _, l := range content {
			if t := strings.TrimSpace(l); t == "**" || t == "*" {
				continue
			}
			rebuilt = append(rebuilt, l)
		}
		rebuilt = append(rebuilt, "")
	}

	return strings.TrimSpace(strings.Join(rebuilt, "\n")) + "\n"
}
