// Package checklist owns today's task collection and its progress, and drives
// loading, day rotation and saving through the persistence gateway.
package checklist

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/model"
	"github.com/sandeepkv93/dailytodo/internal/rotation"
	"github.com/sandeepkv93/dailytodo/internal/scheduler"
)

const ResetPrompt = "Reset all tasks for today? This cannot be undone."

var (
	ErrUnknownSlot = errors.New("checklist: unknown slot")
	ErrNotStarted  = errors.New("checklist: engine not started")
	ErrClosed      = errors.New("checklist: engine closed")
)

// Persistence is the load/save contract of *gateway.Gateway.
type Persistence interface {
	Load(ctx context.Context, userID string, date model.CalendarDate) gateway.LoadResult
	Save(ctx context.Context, snap model.Snapshot) gateway.SaveReport
}

type IdentitySource interface {
	GetOrCreateUserID(ctx context.Context) string
}

type Options struct {
	SlotIDs     []string
	Persistence Persistence
	Identity    IdentitySource
	Clock       rotation.Clock
	Notifier    Notifier
	Confirmer   Confirmer
	Logger      *log.Logger
	QueueBuffer int
}

type Engine struct {
	persistence Persistence
	identity    IdentitySource
	clock       rotation.Clock
	notifier    Notifier
	confirmer   Confirmer
	logger      *log.Logger

	queue    *scheduler.Queue
	rotation *rotation.Manager

	mu      sync.Mutex
	tracker *Tracker
	userID  string
	loaded  gateway.LoadResult
	started bool
	closed  bool
}

func New(opts Options) (*Engine, error) {
	if opts.Persistence == nil {
		return nil, errors.New("checklist: nil persistence")
	}
	if opts.Identity == nil {
		return nil, errors.New("checklist: nil identity source")
	}
	slots := opts.SlotIDs
	if len(slots) == 0 {
		slots = model.DefaultSlotIDs()
	}
	tracker, err := NewTracker(slots)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = rotation.SystemClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NoopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.QueueBuffer <= 0 {
		opts.QueueBuffer = 64
	}
	return &Engine{
		persistence: opts.Persistence,
		identity:    opts.Identity,
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		confirmer:   opts.Confirmer,
		logger:      opts.Logger,
		queue:       scheduler.NewQueue(opts.Persistence, opts.QueueBuffer, opts.Logger),
		rotation:    rotation.NewManager(),
		tracker:     tracker,
	}, nil
}

// Start loads the baseline snapshot and applies a pending day rotation. No
// mutation is accepted and no save is issued before it returns.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.started {
		e.mu.Unlock()
		return nil
	}

	e.userID = e.identity.GetOrCreateUserID(ctx)
	today := rotation.Today(e.clock)
	res := e.persistence.Load(ctx, e.userID, today)
	e.loaded = res

	if dropped := e.tracker.Replace(res.Snapshot.Tasks); len(dropped) > 0 {
		e.logger.WithField("slots", dropped).Warn("dropping records for unknown slots")
	}
	e.rotation.Observe(res.Snapshot.LastSavedDate)
	e.logger.WithFields(log.Fields{
		"user_id":    e.userID,
		"source":     string(res.Source),
		"remote":     res.Remote.String(),
		"local":      res.Local.String(),
		"last_saved": res.Snapshot.LastSavedDate.String(),
		"completed":  e.tracker.Progress().CompletedCount,
	}).Info("checklist loaded")

	e.queue.Start()
	e.started = true

	events, rotated := e.rolloverLocked(today)
	if !rotated {
		events = e.recomputeLocked(events)
	}
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return nil
}

func (e *Engine) SetText(slotID, text string) error {
	e.mu.Lock()
	if err := e.readyLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	today := rotation.Today(e.clock)
	events, _ := e.rolloverLocked(today)
	if err := e.tracker.SetText(slotID, text); err != nil {
		e.mu.Unlock()
		dispatch(e.notifier, events)
		return err
	}
	e.saveLocked(today)
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return nil
}

// SetCompleted sets one slot's flag. Setting the current value changes no
// count and emits nothing, but still saves.
func (e *Engine) SetCompleted(slotID string, completed bool) error {
	e.mu.Lock()
	if err := e.readyLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	today := rotation.Today(e.clock)
	events, _ := e.rolloverLocked(today)
	changed, err := e.tracker.SetCompleted(slotID, completed)
	if err != nil {
		e.mu.Unlock()
		dispatch(e.notifier, events)
		return err
	}
	if changed {
		kind := eventUncompleted
		if completed {
			kind = eventCompleted
		}
		events = append(events, event{kind: kind, slotID: slotID})
	}
	events = e.recomputeLocked(events)
	e.saveLocked(today)
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return nil
}

// Toggle flips a slot's completion flag and returns the new value.
func (e *Engine) Toggle(slotID string) (bool, error) {
	e.mu.Lock()
	rec, err := e.tracker.Record(slotID)
	e.mu.Unlock()
	if err != nil {
		return false, err
	}
	next := !rec.Completed
	return next, e.SetCompleted(slotID, next)
}

// Reset clears every slot. With requireConfirmation the configured Confirmer
// is asked first; no Confirmer counts as a refusal. It reports whether the
// reset happened.
func (e *Engine) Reset(requireConfirmation bool) (bool, error) {
	e.mu.Lock()
	err := e.readyLocked()
	e.mu.Unlock()
	if err != nil {
		return false, err
	}

	if requireConfirmation {
		if e.confirmer == nil || !e.confirmer.Confirm(ResetPrompt) {
			e.logger.Debug("reset declined")
			return false, nil
		}
	}

	e.mu.Lock()
	if err := e.readyLocked(); err != nil {
		e.mu.Unlock()
		return false, err
	}
	today := rotation.Today(e.clock)
	events := e.resetLocked(today, nil)
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return true, nil
}

// RecomputeProgress derives progress from the full collection. Entering the
// fully complete state emits OnFullCompletion once.
func (e *Engine) RecomputeProgress() model.ProgressState {
	e.mu.Lock()
	events := e.recomputeLocked(nil)
	state := e.tracker.Progress()
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return state
}

// CheckDay rotates to an empty checklist when the calendar moved past the
// last save date. It reports whether a rotation happened.
func (e *Engine) CheckDay() bool {
	e.mu.Lock()
	if e.readyLocked() != nil {
		e.mu.Unlock()
		return false
	}
	events, rotated := e.rolloverLocked(rotation.Today(e.clock))
	e.mu.Unlock()

	dispatch(e.notifier, events)
	return rotated
}

func (e *Engine) Progress() model.ProgressState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Progress()
}

func (e *Engine) Record(slotID string) (model.TaskRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Record(slotID)
}

func (e *Engine) SlotIDs() []string {
	return e.tracker.SlotIDs()
}

// Snapshot returns the current state as it would be saved now.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.Snapshot{
		Tasks:         e.tracker.Tasks(),
		LastSavedDate: e.rotation.LastSaved(),
		UserID:        e.userID,
	}
}

func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// LoadResult reports where the startup snapshot came from.
func (e *Engine) LoadResult() gateway.LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Engine) PendingSaves() int {
	return e.queue.Pending()
}

// SaveResults delivers the outcome of applied saves.
func (e *Engine) SaveResults() <-chan scheduler.Result {
	return e.queue.C()
}

// Flush waits until every save issued so far has been applied.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return nil
	}
	return e.queue.Flush(ctx)
}

// Close flushes pending saves and stops the save worker. The engine rejects
// mutations afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.queue.Flush(ctx)
	if errors.Is(err, scheduler.ErrNotStarted) {
		err = nil
	}
	e.queue.Stop()
	return err
}

func (e *Engine) readyLocked() error {
	if e.closed {
		return ErrClosed
	}
	if !e.started {
		return ErrNotStarted
	}
	return nil
}

func (e *Engine) rolloverLocked(today model.CalendarDate) ([]event, bool) {
	if !e.rotation.Check(today) {
		return nil, false
	}
	e.logger.WithFields(log.Fields{
		"from": e.rotation.LastSaved().String(),
		"to":   today.String(),
	}).Info("new day; clearing checklist")
	return e.resetLocked(today, nil), true
}

func (e *Engine) resetLocked(today model.CalendarDate, events []event) []event {
	e.tracker.Clear()
	events = e.recomputeLocked(events)
	e.saveLocked(today)
	e.rotation.Rotated(today)
	return append(events, event{kind: eventReset})
}

func (e *Engine) recomputeLocked(events []event) []event {
	state, enteredFull, drifted := e.tracker.Recompute()
	if drifted {
		e.logger.WithField("completed", state.CompletedCount).Warn("completed count drifted; using recount")
	}
	if enteredFull {
		events = append(events, event{kind: eventFull})
	}
	return events
}

func (e *Engine) saveLocked(today model.CalendarDate) {
	snap := model.Snapshot{Tasks: e.tracker.Tasks(), LastSavedDate: today, UserID: e.userID}
	if _, err := e.queue.Enqueue(snap); err != nil {
		e.logger.WithError(err).Error("save not queued")
		return
	}
	e.rotation.MarkSaved(today)
}
