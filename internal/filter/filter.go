// Package filter provides pure filter functions for annotation items.
// All functions are simple: []Item in, []Item out. No side effects.
package filter

import (
	"strings"

	"github.com/kbenson/examdeck/internal/model"
)

// ByTerm keeps items whose annotated text, analyses, or raw annotations
// contain the search term (case-insensitive). A blank term is the identity:
// the input slice is returned as-is. Missing fields never match.
func ByTerm(items []model.Item, term string) []model.Item {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}

	result := make([]model.Item, 0, len(items))
	for _, item := range items {
		if containsFold(item.TextToAnnotate, term) ||
			containsFold(item.Analyses, term) ||
			containsFold(item.RawAnnotations, term) {
			result = append(result, item)
		}
	}

	return result
}

// containsFold reports whether s contains the already-lowercased term.
func containsFold(s, term string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), term)
}

// ByEdgeCase partitions items into edge cases and the rest.
func ByEdgeCase(items []model.Item) (edgeCases, others []model.Item) {
	edgeCases = make([]model.Item, 0, len(items))
	others = make([]model.Item, 0, len(items))
	for _, item := range items {
		if item.NewEdgeCase {
			edgeCases = append(edgeCases, item)
		} else {
			others = append(others, item)
		}
	}
	return edgeCases, others
}
