// Package match resolves item identity across annotation rounds.
// All functions are pure: slices in, values out. No side effects.
//
// Identity is the uid when both sides have one; otherwise an exact match on
// the annotated text. Text fallback matters because uids can shift when a
// round is regenerated from the same example set.
package match

import "github.com/kbenson/examdeck/internal/model"

// Resolve finds the item in collection that corresponds to it:
// uid match first, exact text_to_annotate match as fallback.
// Returns nil when no counterpart exists.
func Resolve(it model.Item, collection []model.Item) *model.Item {
	if it.UID != "" {
		for i := range collection {
			if collection[i].UID == it.UID {
				return &collection[i]
			}
		}
	}
	if it.TextToAnnotate != "" {
		for i := range collection {
			if collection[i].TextToAnnotate == it.TextToAnnotate {
				return &collection[i]
			}
		}
	}
	return nil
}

// DeltaIndex builds a map from uid to the confidence change between rounds
// (current minus previous). Entries exist only for current items that carry a
// uid and resolve to a previous item; consumers treat absent entries as zero.
// Missing or non-numeric confidences count as 0 on either side.
func DeltaIndex(current, previous []model.Item) map[string]float64 {
	deltas := make(map[string]float64)
	if len(previous) == 0 {
		return deltas
	}

	// Two parallel lookup tables, since identity may shift between rounds.
	byUID := make(map[string]float64, len(previous))
	byText := make(map[string]float64, len(previous))
	for _, prev := range previous {
		if prev.UID != "" {
			byUID[prev.UID] = prev.Confidence
		}
		if prev.TextToAnnotate != "" {
			byText[prev.TextToAnnotate] = prev.Confidence
		}
	}

	for _, cur := range current {
		if cur.UID == "" {
			continue
		}
		prevConf, ok := byUID[cur.UID]
		if !ok {
			prevConf, ok = byText[cur.TextToAnnotate]
		}
		if !ok {
			continue
		}
		deltas[cur.UID] = cur.Confidence - prevConf
	}

	return deltas
}
