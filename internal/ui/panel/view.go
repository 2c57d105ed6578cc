package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbenson/examdeck/internal/model"
)

// Default class colors: unclear, negative, positive.
var defaultPalette = []string{"#d29922", "#f85149", "#3fb950"}

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#c9d1d9")).Background(lipgloss.Color("#1f6feb")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	edgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa657")).Bold(true)
	newStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#d2a8ff")).Bold(true)
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#30363d"))
)

// classStyle returns the color style for a classification badge.
func (m Model) classStyle(class int) lipgloss.Style {
	if !m.colorCode {
		return mutedStyle
	}
	palette := m.palette
	if len(palette) < 3 {
		palette = defaultPalette
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(palette[class+1])).Bold(true)
}

// View renders the panel.
func (m Model) View() string {
	if len(m.current) == 0 {
		return m.renderEmpty()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(0, m.width-2))))
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderEmpty() string {
	return mutedStyle.Render("No examples to display.")
}

func (m Model) renderHeader() string {
	sortLabel := fmt.Sprintf("sort: %s (%s)", m.mode, m.dir)

	var search string
	if m.searching {
		search = m.searchInput.View()
	} else if m.term != "" {
		search = mutedStyle.Render(fmt.Sprintf("search: %q", m.term))
	} else {
		search = mutedStyle.Render("press / to search")
	}

	return headerStyle.Render("Examples") + "  " + mutedStyle.Render(sortLabel) + "  " + search
}

// renderStats shows the aggregate confidence line. Missing cross-round
// deltas render as "–", never as zero.
func (m Model) renderStats() string {
	snap := m.Snapshot()

	parts := []string{
		fmt.Sprintf("edge cases: %d%s", snap.EdgeCaseCount, countDelta(snap.EdgeCaseCountDelta)),
		fmt.Sprintf("edge conf: %.1f%s", snap.EdgeCaseMean, meanDelta(snap.EdgeCaseDelta)),
		fmt.Sprintf("other conf: %.1f%s", snap.OtherMean, meanDelta(snap.OtherDelta)),
	}
	return mutedStyle.Render(strings.Join(parts, "  │  "))
}

func countDelta(d *int) string {
	if d == nil {
		return " (–)"
	}
	return fmt.Sprintf(" (%+d)", *d)
}

func meanDelta(d *float64) string {
	if d == nil {
		return " (–)"
	}
	if *d >= 0 {
		return " " + gainStyle.Render(fmt.Sprintf("(%+.1f)", *d))
	}
	return " " + lossStyle.Render(fmt.Sprintf("(%+.1f)", *d))
}

func (m Model) renderList() string {
	visible := m.Visible()
	if len(visible) == 0 {
		return mutedStyle.Render("No examples match the search.") + "\n"
	}

	// Rows available for the list: header(1) + stats(1) + divider(1) + footer(2).
	rows := m.height - 5
	if rows < 3 {
		rows = 3
	}

	// Keep the cursor in view; the spring eases the offset toward it.
	offset := int(m.scrollPos)
	if offset > m.cursor {
		offset = m.cursor
	}
	if m.cursor-offset >= rows {
		offset = m.cursor - rows + 1
	}
	if offset > len(visible)-rows {
		offset = len(visible) - rows
	}
	if offset < 0 {
		offset = 0
	}

	end := offset + rows
	if end > len(visible) {
		end = len(visible)
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		b.WriteString(m.renderRow(visible[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(item model.Item, atCursor bool) string {
	class := item.Class()
	badge := m.classStyle(class).Render(fmt.Sprintf("%-5s", classLabel(class)))

	conf := mutedStyle.Render("  ?")
	if item.HasConfidence {
		conf = textStyle.Render(fmt.Sprintf("%3.0f", item.Confidence))
	}

	var marks []string
	if item.NewEdgeCase {
		marks = append(marks, edgeStyle.Render("EDGE"))
	}
	if item.IsReannotated {
		marks = append(marks, newStyle.Render("NEW"))
	}
	if d, ok := m.deltas[item.UID]; ok && d != 0 {
		if d > 0 {
			marks = append(marks, gainStyle.Render(deltaBadge(d)))
		} else {
			marks = append(marks, lossStyle.Render(deltaBadge(d)))
		}
	}

	suffix := ""
	if len(marks) > 0 {
		suffix = " " + strings.Join(marks, " ")
	}

	prefix := "  "
	if atCursor {
		prefix = cursorStyle.Render("> ")
	} else if item.UID != "" && item.UID == m.selectedUID {
		prefix = selectedStyle.Render("* ")
	}

	text := item.TextToAnnotate
	maxText := m.width - 20 - lipgloss.Width(suffix)
	if maxText > 10 && len(text) > maxText {
		text = text[:maxText-3] + "..."
	}

	style := textStyle
	if atCursor {
		style = style.Bold(true)
	}

	return prefix + badge + " " + conf + " " + style.Render(text) + suffix
}

func (m Model) renderFooter() string {
	shown, filtered, total := m.Counts()

	counts := fmt.Sprintf("%d of %d examples", filtered, total)
	if shown < filtered {
		counts = fmt.Sprintf("%d shown · %s", shown, counts)
	}

	var more string
	switch {
	case m.loadingMore:
		more = m.spinner.View() + " loading more..."
	case m.HasMore():
		more = "press m to load more"
	case m.AllLoaded():
		more = "all examples loaded"
	}

	line := mutedStyle.Render(counts)
	if more != "" {
		line += mutedStyle.Render("  │  ") + mutedStyle.Render(more)
	}
	return line
}
