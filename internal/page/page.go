// Package page implements the growing pagination window over the
// filtered and sorted example list.
package page

import "github.com/kbenson/examdeck/internal/model"

// DefaultSize is the base page size: the window starts here and each
// load-more request adds another page.
const DefaultSize = 50

// Window tracks how many items of the filtered/sorted list are shown.
// It only grows (per load-more) until reset by a sort or search change.
type Window struct {
	size  int
	show  int
	grown bool // true once the window grew past the base page
}

// NewWindow creates a window with the given page size.
// Sizes < 1 fall back to DefaultSize.
func NewWindow(size int) Window {
	if size < 1 {
		size = DefaultSize
	}
	return Window{size: size, show: size}
}

// Reset shrinks the window back to one page. Called whenever the sort
// mode, direction, or search term changes.
func (w *Window) Reset() {
	w.show = w.size
	w.grown = false
}

// Grow extends the window by one page, capped at total.
func (w *Window) Grow(total int) {
	w.show += w.size
	if w.show > total {
		w.show = total
	}
	if w.show > w.size {
		w.grown = true
	}
}

// Shown returns the current window length before capping against a list.
func (w Window) Shown() int {
	return w.show
}

// HasMore reports whether a load-more affordance should be offered.
func (w Window) HasMore(total int) bool {
	return w.show < total
}

// AllLoaded reports whether the "all items loaded" indicator applies:
// only once the window actually grew past the base page and reached the
// end, so a short unfiltered list doesn't flash the banner.
func (w Window) AllLoaded(total int) bool {
	return w.grown && w.show >= total
}

// Visible returns the window's prefix of sorted, force-including the
// externally selected item when its rank falls outside the prefix. The
// selection stays renderable regardless of where sorting put it.
func (w Window) Visible(sorted []model.Item, selectedUID string) []model.Item {
	n := w.show
	if n > len(sorted) {
		n = len(sorted)
	}

	visible := make([]model.Item, n)
	copy(visible, sorted[:n])

	if selectedUID == "" {
		return visible
	}
	for _, item := range visible {
		if item.UID == selectedUID {
			return visible
		}
	}
	for _, item := range sorted[n:] {
		if item.UID == selectedUID {
			return append(visible, item)
		}
	}
	return visible
}
