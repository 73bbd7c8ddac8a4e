package testutil

import (
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Event is one recorded collaborator notification.
type Event struct {
	Kind   string
	SlotID string
}

// RecordingNotifier records every notification it receives.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingNotifier) OnTaskCompleted(slotID string) {
	r.record(Event{Kind: "completed", SlotID: slotID})
}

func (r *RecordingNotifier) OnTaskUncompleted(slotID string) {
	r.record(Event{Kind: "uncompleted", SlotID: slotID})
}

func (r *RecordingNotifier) OnFullCompletion() {
	r.record(Event{Kind: "full"})
}

func (r *RecordingNotifier) OnDayReset() {
	r.record(Event{Kind: "reset"})
}

func (r *RecordingNotifier) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded.
func (r *RecordingNotifier) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *RecordingNotifier) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// QuietLogger discards all output.
func QuietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
