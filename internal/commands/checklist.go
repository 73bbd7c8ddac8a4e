package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/dailytodo/internal/model"
)

// Checklist is the engine surface the command handlers drive.
type Checklist interface {
	SlotIDs() []string
	Record(slotID string) (model.TaskRecord, error)
	SetText(slotID, text string) error
	SetCompleted(slotID string, completed bool) error
	Reset(requireConfirmation bool) (bool, error)
	Progress() model.ProgressState
}

// ChecklistHandlers binds every command to c.
func ChecklistHandlers(c Checklist) Handlers {
	setDone := func(args SlotArgs, completed bool) (Result, error) {
		id, err := ResolveSlot(args.Slot, c.SlotIDs())
		if err != nil {
			return Result{}, err
		}
		if err := c.SetCompleted(id, completed); err != nil {
			return Result{}, err
		}
		verb := "done"
		if !completed {
			verb = "not done"
		}
		return Result{Message: fmt.Sprintf("%s marked %s (%s)", id, verb, c.Progress())}, nil
	}
	return Handlers{
		Status: func() (Result, error) {
			return Result{Message: Status(c)}, nil
		},
		Text: func(args TextArgs) (Result, error) {
			id, err := ResolveSlot(args.Slot, c.SlotIDs())
			if err != nil {
				return Result{}, err
			}
			if err := c.SetText(id, args.Text); err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("%s updated", id)}, nil
		},
		Done: func(args SlotArgs) (Result, error) { return setDone(args, true) },
		Undo: func(args SlotArgs) (Result, error) { return setDone(args, false) },
		Reset: func(args ResetArgs) (Result, error) {
			done, err := c.Reset(!args.Confirmed)
			if err != nil {
				return Result{}, err
			}
			if !done {
				return Result{Message: "reset cancelled"}, nil
			}
			return Result{Message: fmt.Sprintf("checklist cleared (%s)", c.Progress())}, nil
		},
	}
}

// Status renders the checklist as plain text.
func Status(c Checklist) string {
	var b strings.Builder
	for i, id := range c.SlotIDs() {
		rec, err := c.Record(id)
		if err != nil {
			continue
		}
		mark := " "
		if rec.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "%2d. [%s] %s", i+1, mark, id)
		if text := firstLine(rec.Text); text != "" {
			fmt.Fprintf(&b, "  %s", text)
		}
		b.WriteByte('\n')
	}
	b.WriteString(c.Progress().String())
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}
