package stage

import "strings"

// builtinPhrases marks output lines that carry no information worth showing:
// pip's already-satisfied and self-upgrade nags plus package managers
// reporting that nothing changed. Matching is by substring.
var builtinPhrases = []string{
	"Requirement already satisfied",
	"Defaulting to user installation",
	"WARNING: You are using pip version",
	"You should consider upgrading via",
	"[notice] A new release of pip",
	"[notice] To update, run",
	"Already up to date.",
	"Already up-to-date.",
	"Nothing to do.",
	"No updates are available.",
}

// Filter drops known noise lines from captured stage output while preserving
// every other line verbatim and in order.
type Filter struct {
	phrases []string
}

// NewFilter builds a filter from the built-in phrase list plus any extras
// from configuration.
func NewFilter(extra ...string) *Filter {
	phrases := make([]string, 0, len(builtinPhrases)+len(extra))
	phrases = append(phrases, builtinPhrases...)
	for _, phrase := range extra {
		if trimmed := strings.TrimSpace(phrase); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	return &Filter{phrases: phrases}
}

// Keep reports whether the line survives filtering.
func (f *Filter) Keep(line string) bool {
	if f == nil {
		return true
	}
	for _, phrase := range f.phrases {
		if strings.Contains(line, phrase) {
			return false
		}
	}
	return true
}

// Apply returns the lines that survive filtering, in their original order.
func (f *Filter) Apply(lines []string) []string {
	if f == nil {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Keep(line) {
			out = append(out, line)
		}
	}
	return out
}
