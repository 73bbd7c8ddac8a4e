// Package rotation decides when yesterday's checklist must be discarded.
package rotation

import (
	"sync"
	"time"

	"github.com/sandeepkv93/dailytodo/internal/model"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Today is the calendar date of clock in local time.
func Today(clock Clock) model.CalendarDate {
	return model.DateOf(clock.Now().Local())
}

type State int

const (
	Current State = iota
	Stale
)

func (s State) String() string {
	if s == Stale {
		return "STALE"
	}
	return "CURRENT"
}

// Manager tracks the date of the last save against the calendar.
type Manager struct {
	mu        sync.Mutex
	lastSaved model.CalendarDate
	state     State
}

func NewManager() *Manager {
	return &Manager{state: Current}
}

// Observe records the save date of a freshly loaded snapshot. An absent date
// means a fresh install.
func (m *Manager) Observe(lastSaved model.CalendarDate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSaved = lastSaved
	m.state = Current
}

// Check moves to Stale and returns true when a rollover is due for today.
func (m *Manager) Check(today model.CalendarDate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Stale {
		return true
	}
	if m.lastSaved.IsZero() || m.lastSaved == today {
		return false
	}
	m.state = Stale
	return true
}

// Rotated marks the rollover to today as done.
func (m *Manager) Rotated(today model.CalendarDate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSaved = today
	m.state = Current
}

// MarkSaved records that a save dated date was issued.
func (m *Manager) MarkSaved(date model.CalendarDate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSaved = date
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) LastSaved() model.CalendarDate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaved
}
