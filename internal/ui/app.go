package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbenson/examdeck/internal/model"
	"github.com/kbenson/examdeck/internal/order"
	"github.com/kbenson/examdeck/internal/ui/panel"
)

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the store or the backend client. It receives
// data via messages; the command functions are injected at construction.
type App struct {
	loadBatch  func() tea.Cmd
	reannotate func(item model.Item) tea.Cmd
	addExample func(text string) tea.Cmd

	panel         panel.Model
	loadMoreDelay time.Duration

	taskID string
	round  int

	addInput textinput.Model
	adding   bool

	busy    string // in-flight operation label, "" when idle
	err     error
	width   int
	height  int
	ready   bool
	loading bool
}

// NewApp creates a new App with the given command functions.
// loadBatch: returns a Cmd that loads the current and previous rounds
// reannotate: returns a Cmd that re-annotates a single example
// addExample: returns a Cmd that annotates a new free-text example
func NewApp(loadBatch func() tea.Cmd, reannotate func(item model.Item) tea.Cmd, addExample func(text string) tea.Cmd, pageSize int, loadMoreDelay time.Duration) App {
	if loadMoreDelay <= 0 {
		loadMoreDelay = 300 * time.Millisecond
	}

	ti := textinput.New()
	ti.Placeholder = "New example text..."
	ti.Prompt = "+ "
	ti.CharLimit = 512

	return App{
		loadBatch:     loadBatch,
		reannotate:    reannotate,
		addExample:    addExample,
		panel:         panel.New(pageSize),
		loadMoreDelay: loadMoreDelay,
		addInput:      ti,
	}
}

// SetColorCoding forwards the class color configuration to the panel.
func (a *App) SetColorCoding(enabled bool, palette []string) {
	a.panel.SetColorCoding(enabled, palette)
}

// Init loads the batch and starts the animation ticks.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.panel.Spinner().Tick, scrollTick()}
	if a.loadBatch != nil {
		a.loading = true
		cmds = append(cmds, a.loadBatch())
	}
	return tea.Batch(cmds...)
}

func scrollTick() tea.Cmd {
	return tea.Tick(time.Second/60, func(time.Time) tea.Msg {
		return ScrollTick{}
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.panel.SetSize(msg.Width, msg.Height-2)
		return a, nil

	case BatchLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.taskID = msg.TaskID
		a.round = msg.Round
		a.err = nil
		a.panel.SetItems(msg.Current, msg.Previous)
		return a, nil

	case MoreLoaded:
		a.panel.FinishLoadMore()
		return a, nil

	case ReannotateDone:
		a.busy = ""
		if msg.Err != nil {
			a.err = msg.Err
		} else if msg.Item != nil {
			a.panel.ReplaceItem(*msg.Item)
		}
		return a, nil

	case ExampleAdded:
		a.busy = ""
		if msg.Err != nil {
			a.err = msg.Err
		} else if msg.Item != nil {
			a.panel.AppendItem(*msg.Item)
		}
		return a, nil

	case ScrollTick:
		a.panel.UpdateScroll()
		return a, scrollTick()

	case spinner.TickMsg:
		s, cmd := a.panel.Spinner().Update(msg)
		a.panel.UpdateSpinner(s)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry modes capture everything except their own exits.
	if a.panel.Searching() {
		return a.handleSearchKey(msg)
	}
	if a.adding {
		return a.handleAddKey(msg)
	}

	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		a.panel.CursorDown()
		return a, nil

	case "k", "up":
		a.panel.CursorUp()
		return a, nil

	case "/":
		a.panel.StartSearch()
		return a, nil

	case "s":
		a.panel.CycleMode()
		return a, nil

	case "o":
		a.panel.ToggleDirection()
		return a, nil

	case "1":
		a.panel.SetMode(order.ModeNew)
		return a, nil
	case "2":
		a.panel.SetMode(order.ModeConfidence)
		return a, nil
	case "3":
		a.panel.SetMode(order.ModeConfidenceIncrease)
		return a, nil
	case "4":
		a.panel.SetMode(order.ModeConfidenceDecrease)
		return a, nil
	case "5":
		a.panel.SetMode(order.ModeClass)
		return a, nil
	case "6":
		a.panel.SetMode(order.ModeAlphabetical)
		return a, nil

	case "m", "pgdown":
		// The page reveal is deliberately delayed so the spinner reads as
		// a load, matching the backend-bound paths.
		if a.panel.StartLoadMore() {
			return a, tea.Tick(a.loadMoreDelay, func(time.Time) tea.Msg {
				return MoreLoaded{}
			})
		}
		return a, nil

	case "enter":
		if item := a.panel.CursorItem(); item != nil {
			a.panel.Select(item.UID)
		}
		return a, nil

	case "r":
		if a.busy != "" || a.reannotate == nil {
			return a, nil
		}
		if item := a.panel.CursorItem(); item != nil {
			a.busy = "reannotating"
			return a, a.reannotate(*item)
		}
		return a, nil

	case "a":
		if a.busy == "" && a.addExample != nil {
			a.adding = true
			a.addInput.SetValue("")
			a.addInput.Focus()
		}
		return a, nil

	case "R":
		if a.loadBatch != nil {
			a.loading = true
			return a, a.loadBatch()
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.panel.EndSearch(true)
		return a, nil
	case "esc":
		a.panel.EndSearch(false)
		return a, nil
	}

	input, cmd := a.panel.SearchInput().Update(msg)
	*a.panel.SearchInput() = input
	a.panel.SetTerm(input.Value())
	return a, cmd
}

func (a App) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(a.addInput.Value())
		a.adding = false
		a.addInput.Blur()
		if text == "" || a.addExample == nil {
			return a, nil
		}
		a.busy = "annotating"
		return a, a.addExample(text)
	case "esc":
		a.adding = false
		a.addInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.addInput, cmd = a.addInput.Update(msg)
	return a, cmd
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	content := a.panel.View()

	errorBar := ""
	if a.err != nil {
		errorBar = "\n" + ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)")
	}

	inputBar := ""
	if a.adding {
		inputBar = "\n" + InputBar.Width(a.width).Render(a.addInput.View())
	}

	return content + errorBar + inputBar + "\n" + a.renderStatusBar()
}

func (a App) renderStatusBar() string {
	badge := TitleBadge.Render("examdeck")
	if a.taskID != "" {
		badge = TitleBadge.Render(fmt.Sprintf("%s · round %d", a.taskID, a.round))
	}

	var state string
	switch {
	case a.loading:
		state = "loading batch..."
	case a.busy != "":
		state = a.busy + "..."
	default:
		state = fmt.Sprintf("sort: %s %s", a.panel.Mode(), a.panel.Direction())
	}

	hints := StatusBarKey.Render("/") + StatusBarText.Render(" search  ") +
		StatusBarKey.Render("s") + StatusBarText.Render(" sort  ") +
		StatusBarKey.Render("o") + StatusBarText.Render(" order  ") +
		StatusBarKey.Render("m") + StatusBarText.Render(" more  ") +
		StatusBarKey.Render("r") + StatusBarText.Render(" reannotate  ") +
		StatusBarKey.Render("a") + StatusBarText.Render(" add  ") +
		StatusBarKey.Render("q") + StatusBarText.Render(" quit")

	return badge + StatusBar.Width(max(0, a.width-lipgloss.Width(badge))).Render(state+"  "+hints)
}

// Panel exposes the list panel (for testing).
func (a App) Panel() panel.Model {
	return a.panel
}

// Err returns the last error (for testing).
func (a App) Err() error {
	return a.err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
