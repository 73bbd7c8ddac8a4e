package update

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dailytodo/internal/scheduler"
)

type EventKind string

const (
	EventCompleted   EventKind = "completed"
	EventUncompleted EventKind = "uncompleted"
	EventFull        EventKind = "full"
	EventReset       EventKind = "reset"
)

type CoreEvent struct {
	Kind   EventKind
	SlotID string
	At     time.Time
}

// EventBridge turns engine notifications into a channel the program reads.
// A full channel drops the event rather than stall the engine.
type EventBridge struct {
	ch      chan CoreEvent
	dropped uint64
}

func NewEventBridge(buffer int) *EventBridge {
	if buffer <= 0 {
		buffer = 32
	}
	return &EventBridge{ch: make(chan CoreEvent, buffer)}
}

func (b *EventBridge) C() <-chan CoreEvent { return b.ch }

func (b *EventBridge) Dropped() uint64 { return atomic.LoadUint64(&b.dropped) }

func (b *EventBridge) OnTaskCompleted(slotID string) {
	b.push(CoreEvent{Kind: EventCompleted, SlotID: slotID})
}

func (b *EventBridge) OnTaskUncompleted(slotID string) {
	b.push(CoreEvent{Kind: EventUncompleted, SlotID: slotID})
}

func (b *EventBridge) OnFullCompletion() { b.push(CoreEvent{Kind: EventFull}) }

func (b *EventBridge) OnDayReset() { b.push(CoreEvent{Kind: EventReset}) }

func (b *EventBridge) push(ev CoreEvent) {
	ev.At = time.Now()
	select {
	case b.ch <- ev:
	default:
		atomic.AddUint64(&b.dropped, 1)
	}
}

// ConfirmGate answers the engine's reset prompt with the choice the user
// already made on screen. Each armed answer is consumed by one prompt.
type ConfirmGate struct {
	mu     sync.Mutex
	armed  bool
	answer bool
}

func (g *ConfirmGate) Arm(answer bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.answer = answer
}

func (g *ConfirmGate) Confirm(string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ok := g.armed && g.answer
	g.armed = false
	return ok
}

func waitForEventCmd(ch <-chan CoreEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return CoreEventMsg{Event: ev}
	}
}

func waitForSaveCmd(ch <-chan scheduler.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return SaveResultMsg{Result: res}
	}
}

func rolloverTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return RolloverTickMsg{At: t} })
}
