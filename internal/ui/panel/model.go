// Package panel implements the example list panel: the searchable,
// sortable, paginated view over one annotation round, with statistics
// comparing it to the previous round.
//
// The panel holds no persistence and performs no I/O. Items arrive via
// SetItems; everything else is derived state recomputed eagerly whenever
// one of its inputs changes (search term, sort mode, direction, window).
package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbenson/examdeck/internal/filter"
	"github.com/kbenson/examdeck/internal/match"
	"github.com/kbenson/examdeck/internal/model"
	"github.com/kbenson/examdeck/internal/order"
	"github.com/kbenson/examdeck/internal/page"
	"github.com/kbenson/examdeck/internal/stats"
)

// Model is the example list panel.
type Model struct {
	// Inputs
	current  []model.Item
	previous []model.Item

	// Derived, recomputed by refresh()
	deltas   map[string]float64
	filtered []model.Item
	sorted   []model.Item

	// Interaction state
	term        string
	mode        order.Mode
	dir         order.Direction
	window      page.Window
	selectedUID string
	cursor      int
	loadingMore bool

	// Search input
	searchInput textinput.Model
	searching   bool

	// Presentation
	width     int
	height    int
	spinner   spinner.Model
	colorCode bool
	palette   []string

	// Smooth scrolling with harmonica spring physics
	scrollSpring   harmonica.Spring
	scrollPos      float64
	scrollVelocity float64
	scrollTarget   float64
}

// New creates an example panel with the given page size.
func New(pageSize int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))

	ti := textinput.New()
	ti.Placeholder = "Search examples..."
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	ti.CharLimit = 128

	spring := harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.8)

	return Model{
		deltas:       map[string]float64{},
		mode:         order.ModeConfidence,
		dir:          order.Ascending,
		window:       page.NewWindow(pageSize),
		searchInput:  ti,
		spinner:      s,
		colorCode:    true,
		scrollSpring: spring,
	}
}

// SetColorCoding enables per-class color coding, with an optional palette
// of three colors ordered unclear/negative/positive.
func (m *Model) SetColorCoding(enabled bool, palette []string) {
	m.colorCode = enabled
	m.palette = palette
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 10
}

// SetItems replaces the current and previous rounds. The confidence-delta
// index is rebuilt, the sort mode is revalidated, and the selection is kept
// when the selected item still exists.
func (m *Model) SetItems(current, previous []model.Item) {
	if current == nil {
		current = []model.Item{}
	}
	m.current = current
	m.previous = previous
	m.deltas = match.DeltaIndex(current, previous)

	// "new" is only meaningful while reannotated items exist; fall back.
	if m.mode == order.ModeNew && !order.HasReannotated(current) {
		m.mode = order.ModeConfidence
		m.dir = order.Ascending
		m.resetView()
	}

	m.refresh()

	if m.selectedUID != "" && match.Resolve(model.Item{UID: m.selectedUID}, current) == nil {
		m.selectedUID = ""
	}
	m.clampCursor()
}

// ReplaceItem swaps a single item in place by uid (after reannotation).
func (m *Model) ReplaceItem(item model.Item) {
	for i := range m.current {
		if m.current[i].UID == item.UID {
			m.current[i] = item
			break
		}
	}
	m.deltas = match.DeltaIndex(m.current, m.previous)
	m.refresh()
}

// AppendItem adds a newly annotated example and selects it.
func (m *Model) AppendItem(item model.Item) {
	m.current = append(m.current, item)
	m.deltas = match.DeltaIndex(m.current, m.previous)
	m.refresh()
	m.selectedUID = item.UID
}

// refresh recomputes the filtered and sorted views.
func (m *Model) refresh() {
	m.filtered = filter.ByTerm(m.current, m.term)
	m.sorted = order.Sort(m.filtered, m.deltas, m.mode, m.dir)
}

// resetView resets pagination and scrolls back to the top. Every sort or
// search change lands here.
func (m *Model) resetView() {
	m.window.Reset()
	m.cursor = 0
	m.scrollPos = 0
	m.scrollVelocity = 0
	m.scrollTarget = 0
}

// StartSearch activates the search input.
func (m *Model) StartSearch() {
	m.searching = true
	m.searchInput.SetValue(m.term)
	m.searchInput.Focus()
}

// EndSearch deactivates the input, keeping the term when commit is true.
func (m *Model) EndSearch(commit bool) {
	m.searching = false
	m.searchInput.Blur()
	if commit {
		m.SetTerm(m.searchInput.Value())
	} else {
		m.searchInput.SetValue(m.term)
	}
}

// Searching reports whether the search input is active.
func (m Model) Searching() bool {
	return m.searching
}

// SearchInput exposes the input model for Update wiring.
func (m *Model) SearchInput() *textinput.Model {
	return &m.searchInput
}

// SetTerm applies a new search term. A change resets the window.
func (m *Model) SetTerm(term string) {
	term = strings.TrimSpace(term)
	if term == m.term {
		return
	}
	m.term = term
	m.resetView()
	m.refresh()
}

// Term returns the active search term.
func (m Model) Term() string {
	return m.term
}

// Mode returns the active sort mode.
func (m Model) Mode() order.Mode {
	return m.mode
}

// Direction returns the active sort direction.
func (m Model) Direction() order.Direction {
	return m.dir
}

// SetMode switches the sort mode if it is available for the current items.
func (m *Model) SetMode(mode order.Mode) {
	if mode == m.mode || !order.Available(mode, m.current) {
		return
	}
	m.mode = mode
	m.resetView()
	m.refresh()
}

// CycleMode advances to the next available sort mode.
func (m *Model) CycleMode() {
	modes := []order.Mode{
		order.ModeNew,
		order.ModeConfidence,
		order.ModeConfidenceIncrease,
		order.ModeConfidenceDecrease,
		order.ModeClass,
		order.ModeAlphabetical,
	}

	start := 0
	for i, mode := range modes {
		if mode == m.mode {
			start = i
			break
		}
	}
	for i := 1; i <= len(modes); i++ {
		next := modes[(start+i)%len(modes)]
		if order.Available(next, m.current) {
			m.mode = next
			break
		}
	}
	m.resetView()
	m.refresh()
}

// ToggleDirection flips ascending/descending.
func (m *Model) ToggleDirection() {
	if m.dir == order.Ascending {
		m.dir = order.Descending
	} else {
		m.dir = order.Ascending
	}
	m.resetView()
	m.refresh()
}

// StartLoadMore marks a pending load-more. Returns false when one is
// already in flight or there is nothing left to load; the trigger is
// disabled for the duration.
func (m *Model) StartLoadMore() bool {
	if m.loadingMore || !m.window.HasMore(len(m.sorted)) {
		return false
	}
	m.loadingMore = true
	return true
}

// FinishLoadMore grows the window by one page.
func (m *Model) FinishLoadMore() {
	if !m.loadingMore {
		return
	}
	m.loadingMore = false
	m.window.Grow(len(m.sorted))
}

// LoadingMore reports whether a load-more is pending.
func (m Model) LoadingMore() bool {
	return m.loadingMore
}

// HasMore reports whether more items can be loaded.
func (m Model) HasMore() bool {
	return m.window.HasMore(len(m.sorted))
}

// Visible returns the renderable item set: the window's prefix plus the
// selected item when its rank falls outside the window.
func (m Model) Visible() []model.Item {
	return m.window.Visible(m.sorted, m.selectedUID)
}

// Snapshot derives the statistics for the current view.
func (m Model) Snapshot() stats.Snapshot {
	return stats.Compute(m.current, m.sorted, m.previous, m.term)
}

// Select marks an item as the externally-designated selection and moves the
// cursor to it when visible.
func (m *Model) Select(uid string) {
	m.selectedUID = uid
	for i, item := range m.Visible() {
		if item.UID == uid {
			m.setCursor(i)
			return
		}
	}
}

// SelectedUID returns the selected item's uid, or "".
func (m Model) SelectedUID() string {
	return m.selectedUID
}

// CursorItem returns the item under the cursor, or nil when the list is empty.
func (m Model) CursorItem() *model.Item {
	visible := m.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return nil
	}
	item := visible[m.cursor]
	return &item
}

// CursorDown moves the cursor toward the end of the visible set.
func (m *Model) CursorDown() {
	if m.cursor < len(m.Visible())-1 {
		m.setCursor(m.cursor + 1)
	}
}

// CursorUp moves the cursor toward the top.
func (m *Model) CursorUp() {
	if m.cursor > 0 {
		m.setCursor(m.cursor - 1)
	}
}

func (m *Model) setCursor(i int) {
	m.cursor = i
	m.scrollTarget = float64(i)
}

func (m *Model) clampCursor() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
		m.scrollTarget = float64(m.cursor)
	}
}

// UpdateScroll advances the spring animation one frame.
func (m *Model) UpdateScroll() {
	m.scrollPos, m.scrollVelocity = m.scrollSpring.Update(m.scrollPos, m.scrollVelocity, m.scrollTarget)
}

// Spinner returns the spinner model for Update wiring.
func (m Model) Spinner() spinner.Model {
	return m.spinner
}

// UpdateSpinner replaces the spinner after a tick.
func (m *Model) UpdateSpinner(s spinner.Model) {
	m.spinner = s
}

// Counts returns (visible, filtered, total) for the status line.
func (m Model) Counts() (int, int, int) {
	return len(m.Visible()), len(m.sorted), len(m.current)
}

// AllLoaded reports whether the "all examples loaded" note applies.
func (m Model) AllLoaded() bool {
	return m.window.AllLoaded(len(m.sorted))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// classLabel is the short badge per classification.
func classLabel(class int) string {
	switch class {
	case -1:
		return "UNCLR"
	case 1:
		return "POS"
	default:
		return "NEG"
	}
}

// deltaBadge renders the confidence change vs the previous round.
func deltaBadge(delta float64) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("▲%.0f", delta)
	case delta < 0:
		return fmt.Sprintf("▼%.0f", -delta)
	default:
		return ""
	}
}
