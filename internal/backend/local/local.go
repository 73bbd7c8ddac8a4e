// Package local stores today's snapshot in the device key-value store under
// fixed keys. It keeps no per-date namespace.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
	"github.com/sandeepkv93/dailytodo/internal/storage"
)

const (
	TasksKey    = "dailyTodoTasks"
	LastSaveKey = "dailyTodoLastSave"
)

type Backend struct {
	store storage.KeyValueStore
}

func New(store storage.KeyValueStore) *Backend {
	return &Backend{store: store}
}

func (b *Backend) Name() string { return "local" }

// LoadSnapshot ignores date: the local store only ever holds the latest save.
// The returned snapshot carries userID, since the local keys do not store it.
func (b *Backend) LoadSnapshot(ctx context.Context, userID string, _ model.CalendarDate) (model.Snapshot, error) {
	if b == nil || b.store == nil {
		return model.Snapshot{}, backend.ErrBackendUnavailable
	}
	rawTasks, err := b.store.Get(ctx, TasksKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Snapshot{}, backend.ErrNotFound
		}
		return model.Snapshot{}, fmt.Errorf("%w: read %s: %v", backend.ErrBackendUnavailable, TasksKey, err)
	}
	tasks := model.TaskCollection{}
	if err := json.Unmarshal([]byte(rawTasks), &tasks); err != nil {
		return model.Snapshot{}, backend.Malformed(TasksKey, err)
	}
	if tasks == nil {
		tasks = model.TaskCollection{}
	}

	var lastSave model.CalendarDate
	rawDate, err := b.store.Get(ctx, LastSaveKey)
	switch {
	case err == nil:
		lastSave, err = model.ParseDate(rawDate)
		if err != nil {
			return model.Snapshot{}, backend.Malformed(LastSaveKey, err)
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return model.Snapshot{}, fmt.Errorf("%w: read %s: %v", backend.ErrBackendUnavailable, LastSaveKey, err)
	}

	snap := model.Snapshot{Tasks: tasks, LastSavedDate: lastSave, UserID: userID}
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, backend.Malformed("snapshot", err)
	}
	return snap, nil
}

// SaveSnapshot writes the task map and the save date in one store transaction.
func (b *Backend) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if b == nil || b.store == nil {
		return backend.ErrBackendUnavailable
	}
	tasks := snap.Tasks
	if tasks == nil {
		tasks = model.TaskCollection{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := b.store.SetMany(ctx, map[string]string{
		TasksKey:    string(payload),
		LastSaveKey: snap.LastSavedDate.String(),
	}); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", backend.ErrBackendUnavailable, err)
	}
	return nil
}
