// Package stats aggregates confidence statistics for an annotation round,
// comparing edge cases against the rest and the current round against the
// previous one. Everything is derived read-only state: recompute, don't mutate.
package stats

import (
	"github.com/kbenson/examdeck/internal/filter"
	"github.com/kbenson/examdeck/internal/match"
	"github.com/kbenson/examdeck/internal/model"
)

// Snapshot is one derived statistics record for display.
//
// Delta fields are pointers: nil means "no comparison possible" (no previous
// round, empty partition, no matches, or unresolvable means) and must be
// rendered distinctly from a zero delta.
type Snapshot struct {
	EdgeCaseMean float64 // mean confidence of edge cases, 0 when none eligible
	OtherMean    float64 // mean confidence of the rest

	EdgeCaseDelta *float64 // current vs previous mean over matched edge cases
	OtherDelta    *float64 // same for non-edge-cases

	EdgeCaseCount      int
	EdgeCaseCountDelta *int // vs previous round's edge-case count

	Total    int // full current population
	Filtered int // population after search filtering
}

// Compute derives a Snapshot.
//
// current is the full round; visible is the filtered/sorted view. When a
// search term is active the statistics describe the visible population,
// otherwise the whole round. previous may be nil.
func Compute(current, visible, previous []model.Item, term string) Snapshot {
	base := current
	if term != "" {
		base = visible
	}

	edgeCases, others := filter.ByEdgeCase(base)

	snap := Snapshot{
		EdgeCaseMean:  meanConfidence(edgeCases),
		OtherMean:     meanConfidence(others),
		EdgeCaseCount: len(edgeCases),
		Total:         len(current),
		Filtered:      len(visible),
	}

	if previous == nil {
		return snap
	}

	prevEdge, prevOthers := filter.ByEdgeCase(previous)
	snap.EdgeCaseDelta = crossRoundDelta(prevEdge, current)
	snap.OtherDelta = crossRoundDelta(prevOthers, current)

	countDelta := len(edgeCases) - len(prevEdge)
	snap.EdgeCaseCountDelta = &countDelta

	return snap
}

// meanConfidence averages confidences in [0, 100]. Out-of-range and
// non-numeric values are excluded, not zeroed. Empty eligible set yields 0.
func meanConfidence(items []model.Item) float64 {
	var sum float64
	var n int
	for _, item := range items {
		if item.ConfidenceInRange() {
			sum += item.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// crossRoundDelta matches each previous-partition item to a current item and
// reports currentMean - previousMean over the matched subsets. Returns nil
// when the partition is empty, nothing matches, or either mean has no
// eligible confidences.
func crossRoundDelta(prevPartition, current []model.Item) *float64 {
	if len(prevPartition) == 0 {
		return nil
	}

	var matchedPrev, matchedCur []model.Item
	for _, prev := range prevPartition {
		cur := match.Resolve(prev, current)
		if cur == nil {
			continue
		}
		matchedPrev = append(matchedPrev, prev)
		matchedCur = append(matchedCur, *cur)
	}
	if len(matchedPrev) == 0 {
		return nil
	}

	if !anyInRange(matchedPrev) || !anyInRange(matchedCur) {
		return nil
	}

	delta := meanConfidence(matchedCur) - meanConfidence(matchedPrev)
	return &delta
}

func anyInRange(items []model.Item) bool {
	for _, item := range items {
		if item.ConfidenceInRange() {
			return true
		}
	}
	return false
}
