// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims
// spaces. Applied to transcripts and LLM output before counting or storage.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CountOccurrences counts non-overlapping, case-insensitive occurrences of
// each phrase in text and returns the total. Multi-word phrases are matched
// as substrings, which is what discourse-marker counting wants.
func CountOccurrences(text string, phrases []string) int {
	if text == "" || len(phrases) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	total := 0
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		total += strings.Count(lower, p)
	}
	return total
}
