package stats

import (
	"testing"

	"github.com/kbenson/examdeck/internal/model"
)

func item(uid string, conf float64, edge bool) model.Item {
	return model.Item{
		UID:            uid,
		TextToAnnotate: "text-" + uid,
		Confidence:     conf,
		HasConfidence:  true,
		NewEdgeCase:    edge,
	}
}

func TestComputeCrossRound(t *testing.T) {
	current := []model.Item{
		item("a", 80, true),
		item("b", 40, false),
	}
	previous := []model.Item{
		item("a", 60, true),
		item("b", 50, false),
	}

	snap := Compute(current, current, previous, "")

	if snap.EdgeCaseMean != 80 {
		t.Errorf("edge-case mean = %v, want 80", snap.EdgeCaseMean)
	}
	if snap.OtherMean != 40 {
		t.Errorf("other mean = %v, want 40", snap.OtherMean)
	}
	if snap.EdgeCaseDelta == nil || *snap.EdgeCaseDelta != 20 {
		t.Errorf("edge-case delta = %v, want +20", snap.EdgeCaseDelta)
	}
	if snap.OtherDelta == nil || *snap.OtherDelta != -10 {
		t.Errorf("other delta = %v, want -10", snap.OtherDelta)
	}
	if snap.EdgeCaseCount != 1 {
		t.Errorf("edge-case count = %d, want 1", snap.EdgeCaseCount)
	}
	if snap.EdgeCaseCountDelta == nil || *snap.EdgeCaseCountDelta != 0 {
		t.Errorf("edge-case count delta = %v, want 0", snap.EdgeCaseCountDelta)
	}
	if snap.Total != 2 || snap.Filtered != 2 {
		t.Errorf("counts = %d/%d, want 2/2", snap.Total, snap.Filtered)
	}
}

func TestComputeNoPrevious(t *testing.T) {
	current := []model.Item{item("a", 70, true)}

	snap := Compute(current, current, nil, "")

	if snap.EdgeCaseDelta != nil || snap.OtherDelta != nil {
		t.Error("deltas must be nil without a previous round")
	}
	if snap.EdgeCaseCountDelta != nil {
		t.Error("count delta must be nil without a previous round")
	}
}

func TestComputeUsesVisibleWhenSearching(t *testing.T) {
	current := []model.Item{
		item("a", 90, false),
		item("b", 10, false),
	}
	visible := current[:1] // search narrowed to item a

	snap := Compute(current, visible, nil, "something")

	if snap.OtherMean != 90 {
		t.Errorf("mean over visible = %v, want 90", snap.OtherMean)
	}
	if snap.Total != 2 || snap.Filtered != 1 {
		t.Errorf("counts = %d/%d, want 2/1", snap.Total, snap.Filtered)
	}
}

func TestMeanExcludesOutOfRange(t *testing.T) {
	current := []model.Item{
		item("a", 60, false),
		item("b", 150, false), // out of range, excluded not zeroed
		item("c", -5, false),  // out of range
		{UID: "d"},            // non-numeric
		item("e", 80, false),
	}

	snap := Compute(current, current, nil, "")

	if snap.OtherMean != 70 {
		t.Errorf("mean = %v, want 70 (only 60 and 80 eligible)", snap.OtherMean)
	}
}

func TestMeanEmptyEligibleSet(t *testing.T) {
	current := []model.Item{{UID: "a", NewEdgeCase: true}}

	snap := Compute(current, current, nil, "")

	if snap.EdgeCaseMean != 0 {
		t.Errorf("mean of empty eligible set = %v, want 0", snap.EdgeCaseMean)
	}
	if snap.EdgeCaseCount != 1 {
		t.Errorf("count still reflects the partition, got %d", snap.EdgeCaseCount)
	}
}

func TestDeltaNilWhenNoMatches(t *testing.T) {
	current := []model.Item{item("a", 80, true)}
	previous := []model.Item{item("z", 50, true)} // no uid or text overlap

	snap := Compute(current, current, previous, "")

	if snap.EdgeCaseDelta != nil {
		t.Errorf("expected nil delta when nothing matches, got %v", *snap.EdgeCaseDelta)
	}
}

func TestDeltaNilWhenPartitionEmpty(t *testing.T) {
	current := []model.Item{item("a", 80, true)}
	previous := []model.Item{item("a", 60, true)} // no previous non-edge items

	snap := Compute(current, current, previous, "")

	if snap.OtherDelta != nil {
		t.Error("expected nil other-delta for empty previous partition")
	}
	if snap.EdgeCaseDelta == nil {
		t.Error("edge-case delta should still resolve")
	}
}

func TestDeltaNilWhenMeanUnresolvable(t *testing.T) {
	// Previous side matches but has no eligible confidence.
	current := []model.Item{item("a", 80, true)}
	previous := []model.Item{{UID: "a", TextToAnnotate: "text-a", NewEdgeCase: true}}

	snap := Compute(current, current, previous, "")

	if snap.EdgeCaseDelta != nil {
		t.Errorf("expected nil delta for unresolvable previous mean, got %v", *snap.EdgeCaseDelta)
	}
}

func TestCountDeltaCountsPreviousWithoutMatching(t *testing.T) {
	current := []model.Item{item("a", 80, true)}
	previous := []model.Item{
		item("x", 10, true),
		item("y", 20, true),
		item("z", 30, false),
	}

	snap := Compute(current, current, previous, "")

	if snap.EdgeCaseCountDelta == nil || *snap.EdgeCaseCountDelta != -1 {
		t.Errorf("count delta = %v, want -1 (1 now vs 2 before)", snap.EdgeCaseCountDelta)
	}
}
