package cleanup

import (
	"strings"

	"github.com/sandevgo/mnemo/internal/core"
)

// noisePatterns is the fixed set of contents that carry no information on
// their own. Matching is case-insensitive against trimmed content.
var noisePatterns = []string{
	"fact",
	"unknown",
	"n/a",
	"na",
	"none",
	"not specified",
	"not sure",
	"no data",
	"nothing",
	"tbd",
	"todo",
	"placeholder",
	"memory",
	"item",
	"...",
	"-",
}

// FilterJunk returns the subset of items considered junk: trimmed content
// shorter than minLen, or an exact noise-pattern match. Pure function.
func FilterJunk(items []core.MemoryItem, minLen int) []core.MemoryItem {
	var junk []core.MemoryItem
	for _, item := range items {
		if isJunk(item.Content, minLen) {
			junk = append(junk, item)
		}
	}
	return junk
}

func isJunk(content string, minLen int) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minLen {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, pattern := range noisePatterns {
		if lower == pattern {
			return true
		}
	}
	return false
}
