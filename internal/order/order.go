// Package order sorts annotation items for the example list.
//
// Each mode defines a comparator; the direction toggle flips the comparator
// sign uniformly, except that modes with a fixed group priority
// (reannotated-first, gainer-first, loser-first) keep that grouping in both
// directions and only flip the ordering within and across groups. That
// asymmetry is intentional and matches the review frontend's behavior.
// Sorting is stable: equal keys keep their input order.
package order

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kbenson/examdeck/internal/model"
)

// Mode selects the active sort strategy.
type Mode int

const (
	// ModeConfidence orders by raw confidence, ascending (missing scores as 0).
	ModeConfidence Mode = iota
	// ModeNew puts reannotated items first, then by confidence descending
	// within each group. Only meaningful when some item is reannotated.
	ModeNew
	// ModeConfidenceIncrease puts items that gained confidence since the
	// previous round first, smallest gain leading.
	ModeConfidenceIncrease
	// ModeConfidenceDecrease puts items that lost confidence first.
	ModeConfidenceDecrease
	// ModeClass orders by classification: unclear (-1), negative (0), positive (1).
	ModeClass
	// ModeAlphabetical orders by the annotated text, locale-aware.
	ModeAlphabetical
)

// String returns the mode name shown in the UI.
func (m Mode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeConfidence:
		return "confidence"
	case ModeConfidenceIncrease:
		return "confidence increase"
	case ModeConfidenceDecrease:
		return "confidence decrease"
	case ModeClass:
		return "class"
	case ModeAlphabetical:
		return "alphabetical"
	default:
		return "unknown"
	}
}

// Direction toggles ascending/descending within a mode.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the direction name shown in the UI.
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// apply flips a comparison result for descending direction.
func (d Direction) apply(c int) int {
	if d == Descending {
		return -c
	}
	return c
}

// collator is shared; locale-aware comparison for alphabetical mode.
var collator = collate.New(language.English)

// Available reports whether the mode can be active for the given items.
// ModeNew requires at least one reannotated item; everything else always works.
func Available(m Mode, items []model.Item) bool {
	if m != ModeNew {
		return true
	}
	return HasReannotated(items)
}

// HasReannotated reports whether any item carries the reannotated flag.
func HasReannotated(items []model.Item) bool {
	for _, item := range items {
		if item.IsReannotated {
			return true
		}
	}
	return false
}

// Sort returns a new slice ordered by the given mode and direction.
// deltas is the uid -> confidence change index from the previous round;
// absent entries count as zero change. The input slice is not modified.
func Sort(items []model.Item, deltas map[string]float64, mode Mode, dir Direction) []model.Item {
	result := make([]model.Item, len(items))
	copy(result, items)

	sort.SliceStable(result, func(i, j int) bool {
		return compare(result[i], result[j], deltas, mode, dir) < 0
	})

	return result
}

// compare returns <0 when a sorts before b.
func compare(a, b model.Item, deltas map[string]float64, mode Mode, dir Direction) int {
	switch mode {
	case ModeNew:
		// Reannotated items lead regardless of direction.
		if a.IsReannotated != b.IsReannotated {
			if a.IsReannotated {
				return -1
			}
			return 1
		}
		// Within each group: confidence descending.
		return dir.apply(cmpFloat(b.Confidence, a.Confidence))

	case ModeConfidenceIncrease:
		da, db := deltas[a.UID], deltas[b.UID]
		gainA, gainB := da > 0, db > 0
		// Gainers lead regardless of direction.
		if gainA != gainB {
			if gainA {
				return -1
			}
			return 1
		}
		if gainA {
			// Smallest gain first.
			return dir.apply(cmpFloat(da, db))
		}
		// Non-gainers: absolute change descending.
		return dir.apply(cmpFloat(math.Abs(db), math.Abs(da)))

	case ModeConfidenceDecrease:
		da, db := deltas[a.UID], deltas[b.UID]
		lossA, lossB := da < 0, db < 0
		// Losers lead regardless of direction.
		if lossA != lossB {
			if lossA {
				return -1
			}
			return 1
		}
		if lossA {
			// Biggest loss first.
			return dir.apply(cmpFloat(da, db))
		}
		// Non-losers: absolute change descending.
		return dir.apply(cmpFloat(math.Abs(db), math.Abs(da)))

	case ModeClass:
		return dir.apply(cmpInt(a.Class(), b.Class()))

	case ModeAlphabetical:
		return dir.apply(collator.CompareString(a.TextToAnnotate, b.TextToAnnotate))

	default: // ModeConfidence
		return dir.apply(cmpFloat(a.Confidence, b.Confidence))
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
