package domain

import (
	"strings"
	"unicode/utf8"
)

// CollapseSpaces trims leading/trailing whitespace and compresses runs of
// spaces into one. Line breaks are preserved.
func CollapseSpaces(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// CleanList trims every item and drops the empty ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }
