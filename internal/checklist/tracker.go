package checklist

import (
	"fmt"
	"sort"

	"github.com/sandeepkv93/dailytodo/internal/model"
)

// Tracker holds the task collection and the running completed count. It is
// not safe for concurrent use; Engine serializes access.
type Tracker struct {
	slots     []string
	index     map[string]int
	tasks     model.TaskCollection
	completed int
	full      bool
}

func NewTracker(slotIDs []string) (*Tracker, error) {
	if err := model.ValidateSlotIDs(slotIDs); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(slotIDs))
	for i, id := range slotIDs {
		index[id] = i
	}
	return &Tracker{
		slots: append([]string(nil), slotIDs...),
		index: index,
		tasks: model.TaskCollection{},
	}, nil
}

func (t *Tracker) SlotIDs() []string {
	return append([]string(nil), t.slots...)
}

func (t *Tracker) Has(slotID string) bool {
	_, ok := t.index[slotID]
	return ok
}

// Replace swaps in a loaded collection wholesale and returns the ids it
// dropped for not being configured slots.
func (t *Tracker) Replace(tasks model.TaskCollection) []string {
	next := make(model.TaskCollection, len(tasks))
	var dropped []string
	for id, rec := range tasks {
		if !t.Has(id) {
			dropped = append(dropped, id)
			continue
		}
		next[id] = rec
	}
	sort.Strings(dropped)
	t.tasks = next
	t.completed = next.CompletedCount()
	return dropped
}

func (t *Tracker) Record(slotID string) (model.TaskRecord, error) {
	if !t.Has(slotID) {
		return model.TaskRecord{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slotID)
	}
	return t.tasks.Get(slotID), nil
}

func (t *Tracker) SetText(slotID, text string) error {
	rec, err := t.Record(slotID)
	if err != nil {
		return err
	}
	rec.Text = text
	t.tasks[slotID] = rec
	return nil
}

// SetCompleted updates the flag and reports whether it actually changed.
func (t *Tracker) SetCompleted(slotID string, completed bool) (bool, error) {
	rec, err := t.Record(slotID)
	if err != nil {
		return false, err
	}
	if rec.Completed == completed {
		return false, nil
	}
	rec.Completed = completed
	t.tasks[slotID] = rec
	if completed {
		t.completed++
	} else {
		t.completed--
	}
	return true, nil
}

// Clear empties the collection. It is the only bulk path to zero.
func (t *Tracker) Clear() {
	t.tasks = model.TaskCollection{}
	t.completed = 0
}

// Progress reports the running count without recounting.
func (t *Tracker) Progress() model.ProgressState {
	return model.NewProgress(t.completed, len(t.slots))
}

// Recompute counts from the collection, adopts that count, and reports
// whether this call entered the fully complete state and whether the
// running count had drifted.
func (t *Tracker) Recompute() (state model.ProgressState, enteredFull bool, drifted bool) {
	count := t.tasks.CompletedCount()
	drifted = count != t.completed
	t.completed = count
	state = model.NewProgress(count, len(t.slots))
	full := state.Complete()
	enteredFull = full && !t.full
	t.full = full
	return state, enteredFull, drifted
}

func (t *Tracker) Tasks() model.TaskCollection {
	return t.tasks.Clone()
}
