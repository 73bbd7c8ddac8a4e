package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/dailytodo/internal/checklist"
	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/identity"
	"github.com/sandeepkv93/dailytodo/internal/storage"
	"github.com/sandeepkv93/dailytodo/internal/testutil"
)

func newEngine(t *testing.T, confirm bool) *checklist.Engine {
	t.Helper()
	engine, err := checklist.New(checklist.Options{
		Persistence: gateway.New(testutil.NewFakeLocal(), nil, testutil.QuietLogger()),
		Identity:    identity.NewProvider(storage.NewMemoryStore(), testutil.QuietLogger()),
		Clock:       testutil.Day(2026, time.October, 18),
		Confirmer:   checklist.ConfirmFunc(func(string) bool { return confirm }),
		Logger:      testutil.QuietLogger(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	return engine
}

func run(t *testing.T, h Handlers, line string) (Result, error) {
	t.Helper()
	cmd, err := Parse(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	return Execute(cmd, h)
}

func TestChecklistHandlersDriveEngine(t *testing.T) {
	engine := newEngine(t, true)
	h := ChecklistHandlers(engine)

	if _, err := run(t, h, "text 3 buy milk"); err != nil {
		t.Fatalf("text: %v", err)
	}
	res, err := run(t, h, "done task-3")
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	if !strings.Contains(res.Message, "1/12 completed") {
		t.Fatalf("unexpected message %q", res.Message)
	}
	rec, _ := engine.Record("task-3")
	if rec.Text != "buy milk" || !rec.Completed {
		t.Fatalf("unexpected record %#v", rec)
	}

	res, _ = run(t, h, "status")
	if !strings.Contains(res.Message, " 3. [x] task-3  buy milk") || !strings.HasSuffix(res.Message, "1/12 completed") {
		t.Fatalf("unexpected status:\n%s", res.Message)
	}

	if _, err := run(t, h, "undo 3"); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if engine.Progress().CompletedCount != 0 {
		t.Fatal("undo must decrement")
	}
}

func TestChecklistHandlersUnknownSlot(t *testing.T) {
	h := ChecklistHandlers(newEngine(t, true))
	_, err := run(t, h, "done 99")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownSlot {
		t.Fatalf("expected unknown slot, got %v", err)
	}
}

func TestChecklistHandlersReset(t *testing.T) {
	engine := newEngine(t, false)
	h := ChecklistHandlers(engine)
	_, _ = run(t, h, "done 1")

	res, err := run(t, h, "reset")
	if err != nil || res.Message != "reset cancelled" || engine.Progress().CompletedCount != 1 {
		t.Fatalf("declined reset: %q %v", res.Message, err)
	}
	res, err = run(t, h, "reset --yes")
	if err != nil || engine.Progress().CompletedCount != 0 {
		t.Fatalf("forced reset: %q %v", res.Message, err)
	}
}
