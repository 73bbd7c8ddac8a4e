// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

// FakeBackend is an in-memory backend.Backend. With PerDate set it keys
// snapshots by user and date like the remote store; otherwise it keeps a
// single latest snapshot like the local store.
type FakeBackend struct {
	mu      sync.Mutex
	name    string
	perDate bool
	docs    map[string]model.Snapshot
	saves   []model.Snapshot
	loads   int

	// Error injection for testing
	LoadErr error
	SaveErr error
	// SaveGate, when set, is received from before every save is applied.
	SaveGate chan struct{}
}

func NewFakeRemote() *FakeBackend {
	return &FakeBackend{name: "fake-remote", perDate: true, docs: make(map[string]model.Snapshot)}
}

func NewFakeLocal() *FakeBackend {
	return &FakeBackend{name: "fake-local", docs: make(map[string]model.Snapshot)}
}

func (f *FakeBackend) Name() string { return f.name }

// Put stores snap directly, bypassing error injection and the save history.
func (f *FakeBackend) Put(snap model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[f.key(snap.UserID, snap.LastSavedDate)] = snap.Clone()
}

func (f *FakeBackend) LoadSnapshot(_ context.Context, userID string, date model.CalendarDate) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.LoadErr != nil {
		return model.Snapshot{}, f.LoadErr
	}
	snap, ok := f.docs[f.key(userID, date)]
	if !ok {
		return model.Snapshot{}, backend.ErrNotFound
	}
	out := snap.Clone()
	if !f.perDate {
		out.UserID = userID
	}
	return out, nil
}

func (f *FakeBackend) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if f.SaveGate != nil {
		select {
		case <-f.SaveGate:
		case <-ctx.Done():
			return backend.Transport("save", ctx.Err())
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.docs[f.key(snap.UserID, snap.LastSavedDate)] = snap.Clone()
	f.saves = append(f.saves, snap.Clone())
	return nil
}

// Saves returns every successfully applied save in order.
func (f *FakeBackend) Saves() []model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Snapshot, len(f.saves))
	copy(out, f.saves)
	return out
}

func (f *FakeBackend) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *FakeBackend) SetLoadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadErr = err
}

func (f *FakeBackend) SetSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveErr = err
}

func (f *FakeBackend) key(userID string, date model.CalendarDate) string {
	if !f.perDate {
		return "latest"
	}
	return userID + "_" + date.String()
}
