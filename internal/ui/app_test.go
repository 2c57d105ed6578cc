package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbenson/examdeck/internal/model"
	"github.com/kbenson/examdeck/internal/order"
)

// mockCmd tracks whether a command function was called.
type mockCmd struct {
	loadCalled bool
	reannUID   string
	addedText  string
}

func (m *mockCmd) loadBatch() tea.Cmd {
	m.loadCalled = true
	return func() tea.Msg {
		return BatchLoaded{
			Current: []model.Item{
				{UID: "1", TextToAnnotate: "first", Annotation: "1", Confidence: 90, HasConfidence: true},
				{UID: "2", TextToAnnotate: "second", Annotation: "-1", Confidence: 40, HasConfidence: true},
				{UID: "3", TextToAnnotate: "third", Annotation: "1", Confidence: 70, HasConfidence: true},
			},
			TaskID: "task1",
			Round:  1,
		}
	}
}

func (m *mockCmd) reannotate(item model.Item) tea.Cmd {
	m.reannUID = item.UID
	return func() tea.Msg {
		updated := item
		updated.Confidence = 99
		updated.IsReannotated = true
		return ReannotateDone{Item: &updated}
	}
}

func (m *mockCmd) addExample(text string) tea.Cmd {
	m.addedText = text
	return func() tea.Msg {
		return ExampleAdded{Item: &model.Item{UID: "new", TextToAnnotate: text, Annotation: "1", Confidence: 50, HasConfidence: true}}
	}
}

func newTestApp(mock *mockCmd) App {
	app := NewApp(mock.loadBatch, mock.reannotate, mock.addExample, 50, 5*time.Millisecond)
	updated, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(App)
}

func loadBatchInto(t *testing.T, app App, mock *mockCmd) App {
	t.Helper()
	msg := mock.loadBatch()()
	updated, _ := app.Update(msg)
	return updated.(App)
}

func TestAppInit(t *testing.T) {
	mock := &mockCmd{}
	app := NewApp(mock.loadBatch, mock.reannotate, mock.addExample, 50, 0)

	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if !mock.loadCalled {
		t.Error("Init should call loadBatch")
	}
}

func TestAppBatchLoaded(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	if _, _, total := app.Panel().Counts(); total != 3 {
		t.Errorf("expected 3 items after load, got %d", total)
	}
}

func TestAppBatchLoadedError(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	updated, _ := app.Update(BatchLoaded{Err: errors.New("read failed")})
	app = updated.(App)
	if app.Err() == nil {
		t.Error("load error must surface")
	}

	// Any key dismisses the error.
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if updated.(App).Err() != nil {
		t.Error("key press should clear the error")
	}
}

func TestAppSearchFlow(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	app = updated.(App)
	if !app.Panel().Searching() {
		t.Fatal("/ should open search")
	}

	for _, r := range "sec" {
		updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = updated.(App)
	}
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = updated.(App)

	if app.Panel().Searching() {
		t.Error("enter should close search")
	}
	if app.Panel().Term() != "sec" {
		t.Errorf("expected committed term, got %q", app.Panel().Term())
	}
	if _, filtered, _ := app.Panel().Counts(); filtered != 1 {
		t.Errorf("expected 1 match, got %d", filtered)
	}
}

func TestAppSortKeys(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'6'}})
	app = updated.(App)
	if app.Panel().Mode() != order.ModeAlphabetical {
		t.Errorf("expected alphabetical, got %v", app.Panel().Mode())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	app = updated.(App)
	if app.Panel().Direction() != order.Descending {
		t.Errorf("o should flip direction, got %v", app.Panel().Direction())
	}

	// "new" is unavailable without reannotated items.
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	app = updated.(App)
	if app.Panel().Mode() == order.ModeNew {
		t.Error("new mode must stay unavailable")
	}
}

func TestAppLoadMore(t *testing.T) {
	mock := &mockCmd{}
	app := NewApp(mock.loadBatch, mock.reannotate, mock.addExample, 2, 5*time.Millisecond)
	updated, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app = updated.(App)
	app = loadBatchInto(t, app, mock)

	updated, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	app = updated.(App)
	if cmd == nil {
		t.Fatal("m should schedule the delayed reveal")
	}
	if !app.Panel().LoadingMore() {
		t.Fatal("panel should be loading")
	}

	// A second press while pending must not schedule another reveal.
	updated, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	app = updated.(App)
	if cmd != nil {
		t.Error("pending load-more must not re-trigger")
	}

	updated, _ = app.Update(MoreLoaded{})
	app = updated.(App)
	if app.Panel().LoadingMore() {
		t.Error("reveal should clear the loading flag")
	}
	if shown, _, _ := app.Panel().Counts(); shown != 3 {
		t.Errorf("expected the window to grow to 3, got %d", shown)
	}
}

func TestAppReannotate(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	updated, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	app = updated.(App)
	if cmd == nil {
		t.Fatal("r should issue the reannotate command")
	}

	// Busy: a second r is ignored.
	_, cmd2 := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd2 != nil {
		t.Error("reannotate must not stack while busy")
	}

	updated, _ = app.Update(cmd())
	app = updated.(App)

	if mock.reannUID == "" {
		t.Fatal("reannotate command should receive the cursor item")
	}
	var found bool
	for _, item := range app.Panel().Visible() {
		if item.UID == mock.reannUID {
			found = true
			if item.Confidence != 99 || !item.IsReannotated {
				t.Errorf("item should carry the reannotation, got %+v", item)
			}
		}
	}
	if !found {
		t.Errorf("reannotated item %q vanished from the list", mock.reannUID)
	}
}

func TestAppAddExample(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	app = updated.(App)
	if !app.adding {
		t.Fatal("a should open the add-example input")
	}

	for _, r := range "hi" {
		updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = updated.(App)
	}
	updated, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = updated.(App)
	if cmd == nil {
		t.Fatal("enter should submit the example")
	}
	if mock.addedText != "hi" {
		t.Errorf("expected submitted text, got %q", mock.addedText)
	}

	updated, _ = app.Update(cmd())
	app = updated.(App)
	if _, _, total := app.Panel().Counts(); total != 4 {
		t.Errorf("expected 4 items after add, got %d", total)
	}
	if app.Panel().SelectedUID() != "new" {
		t.Errorf("added item should be selected, got %q", app.Panel().SelectedUID())
	}
}

func TestAppAddExampleCancel(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)
	app = loadBatchInto(t, app, mock)

	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	app = updated.(App)
	updated, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = updated.(App)
	if app.adding || cmd != nil {
		t.Error("esc should cancel the add input")
	}
	if mock.addedText != "" {
		t.Error("cancelled add must not submit")
	}
}

func TestAppQuit(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command should produce a message")
	}
}
