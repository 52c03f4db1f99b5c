package util

import (
	"strings"
)

// ExtractHashtags extracts #tag hashtags from text content.
// Returns a slice of unique tags (lowercase, without # symbol).
func ExtractHashtags(content string) []string {
	var tags []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tag := strings.TrimPrefix(word, "#")
			tag = strings.TrimRight(tag, ".,!?;:")
			tag = strings.ToLower(tag)

			if !seen[tag] && len(tag) >= 2 && len(tag) <= 50 {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// Truncate shortens a string to at most n runes, appending an ellipsis when
// cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
