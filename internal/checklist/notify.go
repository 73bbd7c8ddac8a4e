package checklist

// Notifier receives one-way signals for presentation collaborators. Calls
// happen outside the engine lock; implementations must not block for long.
type Notifier interface {
	OnTaskCompleted(slotID string)
	OnTaskUncompleted(slotID string)
	OnFullCompletion()
	OnDayReset()
}

type NoopNotifier struct{}

func (NoopNotifier) OnTaskCompleted(string)   {}
func (NoopNotifier) OnTaskUncompleted(string) {}
func (NoopNotifier) OnFullCompletion()        {}
func (NoopNotifier) OnDayReset()              {}

// Notifiers fans every signal out in order.
type Notifiers []Notifier

func (ns Notifiers) OnTaskCompleted(slotID string) {
	for _, n := range ns {
		n.OnTaskCompleted(slotID)
	}
}

func (ns Notifiers) OnTaskUncompleted(slotID string) {
	for _, n := range ns {
		n.OnTaskUncompleted(slotID)
	}
}

func (ns Notifiers) OnFullCompletion() {
	for _, n := range ns {
		n.OnFullCompletion()
	}
}

func (ns Notifiers) OnDayReset() {
	for _, n := range ns {
		n.OnDayReset()
	}
}

// Confirmer answers a yes/no prompt for user-initiated resets.
type Confirmer interface {
	Confirm(message string) bool
}

type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

type event struct {
	kind   eventKind
	slotID string
}

type eventKind int

const (
	eventCompleted eventKind = iota
	eventUncompleted
	eventFull
	eventReset
)

func dispatch(n Notifier, events []event) {
	for _, ev := range events {
		switch ev.kind {
		case eventCompleted:
			n.OnTaskCompleted(ev.slotID)
		case eventUncompleted:
			n.OnTaskUncompleted(ev.slotID)
		case eventFull:
			n.OnFullCompletion()
		case eventReset:
			n.OnDayReset()
		}
	}
}
