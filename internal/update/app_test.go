package update

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/checklist"
	"github.com/sandeepkv93/dailytodo/internal/commands"
	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/identity"
	"github.com/sandeepkv93/dailytodo/internal/scheduler"
	"github.com/sandeepkv93/dailytodo/internal/storage"
	"github.com/sandeepkv93/dailytodo/internal/testutil"
)

type recordingDesktop struct {
	sent []Notification
}

func (r *recordingDesktop) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	model   Model
	engine  *checklist.Engine
	clock   *testutil.Clock
	bridge  *EventBridge
	desktop *recordingDesktop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:   testutil.Day(2026, time.October, 18),
		bridge:  NewEventBridge(64),
		desktop: &recordingDesktop{},
	}
	gate := &ConfirmGate{}
	ids := storage.NewMemoryStore()
	_ = ids.Set(context.Background(), identity.UserIDKey, "user_tui")
	engine, err := checklist.New(checklist.Options{
		Persistence: gateway.New(testutil.NewFakeLocal(), testutil.NewFakeRemote(), testutil.QuietLogger()),
		Identity:    identity.NewProvider(ids, testutil.QuietLogger()),
		Clock:       f.clock,
		Notifier:    f.bridge,
		Confirmer:   gate,
		Logger:      testutil.QuietLogger(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	f.engine = engine
	f.model = NewModel(engine, Options{
		Events:         f.bridge.C(),
		Gate:           gate,
		DesktopEnabled: true,
		Notifier:       f.desktop,
	})
	return f
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestCursorMovesAndClamps(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "k")
	if m.Cursor != 0 {
		t.Fatalf("cursor should clamp at 0, got %d", m.Cursor)
	}
	m = press(m, "j", "j")
	if m.SelectedSlot() != "task-3" {
		t.Fatalf("expected task-3 selected, got %s", m.SelectedSlot())
	}
	m = press(m, "G", "j")
	if m.SelectedSlot() != "task-12" {
		t.Fatalf("cursor should clamp at last slot, got %s", m.SelectedSlot())
	}
	m = press(m, "5")
	if m.SelectedSlot() != "task-5" {
		t.Fatalf("digit should jump to task-5, got %s", m.SelectedSlot())
	}
}

func TestToggleMarksSelectedSlot(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "j", "x")
	rec, _ := f.engine.Record("task-2")
	if !rec.Completed {
		t.Fatal("expected task-2 completed")
	}
	if m.Status.Text != "task-2 marked done" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if got := f.engine.Progress().String(); got != "1/12 completed" {
		t.Fatalf("unexpected progress %q", got)
	}
	if !strings.Contains(m.View(), "1/12 completed") {
		t.Fatal("view should show progress")
	}

	m = press(m, "x")
	rec, _ = f.engine.Record("task-2")
	if rec.Completed || m.Status.Text != "task-2 marked not done" {
		t.Fatalf("expected task-2 reopened, status %q", m.Status.Text)
	}
}

func TestEngineEventsBecomeNotifications(t *testing.T) {
	f := newFixture(t)
	press(f.model, "x")

	ev := <-f.bridge.C()
	if ev.Kind != EventCompleted || ev.SlotID != "task-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	updated, cmd := f.model.Update(CoreEventMsg{Event: ev})
	m := updated.(Model)
	if cmd == nil {
		t.Fatal("expected the model to keep waiting for events")
	}
	last := m.Notifications[len(m.Notifications)-1]
	if last.Body != "task-1 completed" {
		t.Fatalf("unexpected notification %+v", last)
	}
	if len(f.desktop.sent) != 0 {
		t.Fatal("single completions must not reach the desktop")
	}
}

func TestFullCompletionSendsDesktopNotification(t *testing.T) {
	f := newFixture(t)
	updated, _ := f.model.Update(CoreEventMsg{Event: CoreEvent{Kind: EventFull}})
	m := updated.(Model)
	if len(f.desktop.sent) != 1 {
		t.Fatalf("expected one desktop notification, got %d", len(f.desktop.sent))
	}
	if got := f.desktop.sent[0].Body; got != "All 12 tasks completed!" {
		t.Fatalf("unexpected body %q", got)
	}
	if m.Notifications[len(m.Notifications)-1].Level != "success" {
		t.Fatal("expected success level")
	}
}

func TestEditNotesSavesOnEsc(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "j", "enter")
	if !m.Editing {
		t.Fatal("enter should open the editor")
	}
	m = press(m, "call mom")
	if !strings.Contains(m.View(), "esc/ctrl+s") {
		t.Fatal("view should show the editor hint")
	}
	m = press(m, "esc")
	if m.Editing {
		t.Fatal("esc should close the editor")
	}
	rec, _ := f.engine.Record("task-2")
	if rec.Text != "call mom" {
		t.Fatalf("unexpected text %q", rec.Text)
	}
	if m.Status.Text != "task-2 notes saved" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "x", "R")
	if !m.ConfirmReset {
		t.Fatal("R should open the confirm prompt")
	}
	if !strings.Contains(m.View(), checklist.ResetPrompt) {
		t.Fatal("view should show the reset prompt")
	}
	m = press(m, "n")
	if m.ConfirmReset || m.Status.Text != "reset cancelled" {
		t.Fatalf("expected cancelled reset, status %q", m.Status.Text)
	}
	if f.engine.Progress().CompletedCount != 1 {
		t.Fatal("declined reset must keep progress")
	}

	m = press(m, "R", "y")
	if m.Status.Text != "checklist cleared" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if f.engine.Progress().CompletedCount != 0 {
		t.Fatal("confirmed reset must clear progress")
	}
}

func TestPaletteRunsChecklistCommands(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "/", "done 3", "enter")
	if m.Palette.Active {
		t.Fatal("palette should close after running")
	}
	rec, _ := f.engine.Record("task-3")
	if !rec.Completed {
		t.Fatal("expected task-3 completed via palette")
	}
	if !strings.HasPrefix(m.Status.Text, "task-3 marked done") {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}

	m = press(m, "/", "reset", "enter")
	if !m.ConfirmReset {
		t.Fatal("unconfirmed reset should open the prompt")
	}
	if f.engine.Progress().CompletedCount != 1 {
		t.Fatal("palette reset must wait for confirmation")
	}

	m = press(m, "n", "/", "done 99", "enter")
	if !m.Status.IsError {
		t.Fatal("unknown slot should surface an error")
	}
	var cmdErr *commands.CommandError
	if !errors.As(m.LastError, &cmdErr) || cmdErr.Code != commands.ErrCodeUnknownSlot {
		t.Fatalf("unexpected error %v", m.LastError)
	}
}

func TestSaveResultStatus(t *testing.T) {
	f := newFixture(t)
	updated, cmd := f.model.Update(SaveResultMsg{Result: scheduler.Result{Report: gateway.SaveReport{
		Remote: backend.KindTransport,
		Local:  backend.KindUnavailable,
	}}})
	m := updated.(Model)
	if cmd == nil {
		t.Fatal("expected the model to keep waiting for saves")
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "may not survive a reload") {
		t.Fatalf("unexpected status %+v", m.Status)
	}

	updated, _ = m.Update(SaveResultMsg{Result: scheduler.Result{Report: gateway.SaveReport{
		Remote: backend.KindTransport,
		Local:  backend.KindOK,
	}}})
	m = updated.(Model)
	if m.Status.IsError || m.Status.Text != "saved locally (cloud transport_error)" {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestRolloverTickClearsAfterMidnight(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "x")
	if err := f.engine.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	updated, _ := m.Update(RolloverTickMsg{})
	m = updated.(Model)
	if m.Status.Text == "new day: checklist cleared" {
		t.Fatal("no rotation expected on the same day")
	}

	f.clock.Advance(24 * time.Hour)
	updated, cmd := m.Update(RolloverTickMsg{})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected the next tick to be scheduled")
	}
	if m.Status.Text != "new day: checklist cleared" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if f.engine.Progress().CompletedCount != 0 {
		t.Fatal("rotation must clear progress")
	}
	if !strings.Contains(m.View(), "2026-10-19") {
		t.Fatal("header should show the new day")
	}
}

func TestQuitKey(t *testing.T) {
	f := newFixture(t)
	updated, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m := updated.(Model)
	if !m.Quitting || cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t)
	m := press(f.model, "?")
	if !m.HelpVisible || !strings.Contains(m.View(), "toggle done") {
		t.Fatal("help should be visible")
	}
	m = press(m, "?")
	if m.HelpVisible {
		t.Fatal("help should hide")
	}
}
