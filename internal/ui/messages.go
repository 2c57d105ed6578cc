// Package ui provides the Bubble Tea TUI for examdeck.
package ui

import "github.com/kbenson/examdeck/internal/model"

// BatchLoaded is sent when an annotation batch (and the previous round,
// when one exists) has been loaded.
type BatchLoaded struct {
	Current  []model.Item
	Previous []model.Item
	TaskID   string
	Round    int
	Err      error
}

// MoreLoaded is sent when the simulated load-more delay elapses and the
// next page should become visible.
type MoreLoaded struct{}

// ReannotateDone is sent when a single-example reannotation round-trip
// finishes. Item replaces the stale entry in place.
type ReannotateDone struct {
	Item *model.Item
	Err  error
}

// ExampleAdded is sent when a newly submitted example has been annotated.
type ExampleAdded struct {
	Item *model.Item
	Err  error
}

// ScrollTick drives the scroll spring animation.
type ScrollTick struct{}
