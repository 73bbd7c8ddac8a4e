package local

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
	"github.com/sandeepkv93/dailytodo/internal/storage"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error)      { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error        { return f.err }
func (f failingStore) SetMany(context.Context, map[string]string) error { return f.err }
func (f failingStore) Delete(context.Context, string) error             { return f.err }

func TestLoadEmptyStoreIsNotFound(t *testing.T) {
	b := New(storage.NewMemoryStore())
	_, err := b.LoadSnapshot(t.Context(), "user_1", "2026-10-18")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cases := []model.Snapshot{
		{Tasks: model.TaskCollection{}, LastSavedDate: "2026-10-18", UserID: "user_1"},
		{
			Tasks: model.TaskCollection{
				"task-1": {Text: "stretch", Completed: true},
				"task-3": {Text: "buy milk", Completed: false},
			},
			LastSavedDate: "2026-10-17",
			UserID:        "user_1",
		},
	}
	for _, want := range cases {
		b := New(storage.NewMemoryStore())
		if err := b.SaveSnapshot(t.Context(), want); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := b.LoadSnapshot(t.Context(), "user_1", "2026-10-18")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
		}
	}
}

func TestSaveWritesFixedKeys(t *testing.T) {
	store := storage.NewMemoryStore()
	b := New(store)
	snap := model.Snapshot{
		Tasks:         model.TaskCollection{"task-3": {Text: "buy milk", Completed: true}},
		LastSavedDate: "2026-10-18",
		UserID:        "user_1",
	}
	if err := b.SaveSnapshot(t.Context(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _ := store.Get(t.Context(), TasksKey)
	if raw != `{"task-3":{"text":"buy milk","completed":true}}` {
		t.Fatalf("unexpected tasks payload: %s", raw)
	}
	date, _ := store.Get(t.Context(), LastSaveKey)
	if date != "2026-10-18" {
		t.Fatalf("unexpected last save: %q", date)
	}
}

func TestLoadMalformedData(t *testing.T) {
	ctx := context.Background()

	store := storage.NewMemoryStore()
	_ = store.Set(ctx, TasksKey, "{not json")
	if _, err := New(store).LoadSnapshot(ctx, "u", "2026-10-18"); !errors.Is(err, backend.ErrMalformedSnapshot) {
		t.Fatalf("expected malformed for bad json, got %v", err)
	}

	store = storage.NewMemoryStore()
	_ = store.Set(ctx, TasksKey, "{}")
	_ = store.Set(ctx, LastSaveKey, "Sat Oct 18 2026")
	if _, err := New(store).LoadSnapshot(ctx, "u", "2026-10-18"); !errors.Is(err, backend.ErrMalformedSnapshot) {
		t.Fatalf("expected malformed for bad date, got %v", err)
	}
}

func TestLoadWithoutLastSaveHasNoDate(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Set(t.Context(), TasksKey, `{"task-1":{"text":"a","completed":false}}`)
	snap, err := New(store).LoadSnapshot(t.Context(), "u", "2026-10-18")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !snap.LastSavedDate.IsZero() {
		t.Fatalf("expected absent date, got %q", snap.LastSavedDate)
	}
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	b := New(failingStore{err: errors.New("disk gone")})
	if _, err := b.LoadSnapshot(t.Context(), "u", "2026-10-18"); !errors.Is(err, backend.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable on load, got %v", err)
	}
	if err := b.SaveSnapshot(t.Context(), model.EmptySnapshot("u", "2026-10-18")); !errors.Is(err, backend.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable on save, got %v", err)
	}
	if err := New(nil).SaveSnapshot(t.Context(), model.Snapshot{}); !errors.Is(err, backend.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable for nil store, got %v", err)
	}
}
