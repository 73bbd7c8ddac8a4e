package remote

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

type stubBackend struct {
	loadFn func(ctx context.Context, userID string, date model.CalendarDate) (model.Snapshot, error)
	saveFn func(ctx context.Context, snap model.Snapshot) error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) LoadSnapshot(ctx context.Context, userID string, date model.CalendarDate) (model.Snapshot, error) {
	if s.loadFn == nil {
		return model.Snapshot{}, errors.New("unexpected LoadSnapshot call")
	}
	return s.loadFn(ctx, userID, date)
}

func (s *stubBackend) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if s.saveFn == nil {
		return errors.New("unexpected SaveSnapshot call")
	}
	return s.saveFn(ctx, snap)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheLoadMissThenHit(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	expected := model.Snapshot{
		Tasks:         model.TaskCollection{"task-1": {Text: "run", Completed: true}},
		LastSavedDate: "2026-10-18",
		UserID:        "user_1",
	}

	var calls int
	cache := NewCache(&stubBackend{
		loadFn: func(_ context.Context, userID string, date model.CalendarDate) (model.Snapshot, error) {
			calls++
			if userID != "user_1" || date != "2026-10-18" {
				t.Fatalf("unexpected load args %q %q", userID, date)
			}
			return expected, nil
		},
	}, client, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := cache.LoadSnapshot(ctx, "user_1", "2026-10-18")
		if err != nil {
			t.Fatalf("load #%d: %v", i+1, err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("unexpected snapshot: %#v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one backend call, got %d", calls)
	}
	if ttl := mr.TTL("dailytodo:snapshot:user_1_2026-10-18"); ttl != time.Minute {
		t.Fatalf("unexpected ttl: %s", ttl)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewCache(&stubBackend{
		loadFn: func(context.Context, string, model.CalendarDate) (model.Snapshot, error) {
			return model.Snapshot{}, backend.ErrNotFound
		},
	}, client, time.Minute)

	if _, err := cache.LoadSnapshot(t.Context(), "u", "2026-10-18"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found passthrough, got %v", err)
	}
	if mr.Exists("dailytodo:snapshot:u_2026-10-18") {
		t.Fatal("not-found result must not be cached")
	}
}

func TestCacheSaveWritesThrough(t *testing.T) {
	mr, client := newRedis(t)
	var saved model.Snapshot
	cache := NewCache(&stubBackend{
		saveFn: func(_ context.Context, snap model.Snapshot) error {
			saved = snap
			return nil
		},
	}, client, time.Hour)

	snap := model.EmptySnapshot("u", "2026-10-18")
	if err := cache.SaveSnapshot(t.Context(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UserID != "u" {
		t.Fatalf("backend not called: %#v", saved)
	}
	raw, err := mr.Get("dailytodo:snapshot:u_2026-10-18")
	if err != nil {
		t.Fatalf("expected cached entry: %v", err)
	}
	var cached model.Snapshot
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached.LastSavedDate != "2026-10-18" {
		t.Fatalf("unexpected cached entry %q: %v", raw, err)
	}
}

func TestCacheSaveFailureEvicts(t *testing.T) {
	mr, client := newRedis(t)
	_ = mr.Set("dailytodo:snapshot:u_2026-10-18", `{"tasks":{},"lastSavedDate":"2026-10-18","userId":"u"}`)
	cache := NewCache(&stubBackend{
		saveFn: func(context.Context, model.Snapshot) error {
			return backend.Transport("upsert entity", errors.New("boom"))
		},
	}, client, time.Hour)

	err := cache.SaveSnapshot(t.Context(), model.EmptySnapshot("u", "2026-10-18"))
	if backend.Classify(err) != backend.KindTransport {
		t.Fatalf("expected transport error passthrough, got %v", err)
	}
	if mr.Exists("dailytodo:snapshot:u_2026-10-18") {
		t.Fatal("expected stale entry to be evicted")
	}
}

func TestCacheCorruptEntryFallsThrough(t *testing.T) {
	mr, client := newRedis(t)
	_ = mr.Set("dailytodo:snapshot:u_2026-10-18", "garbage")
	var calls int
	cache := NewCache(&stubBackend{
		loadFn: func(context.Context, string, model.CalendarDate) (model.Snapshot, error) {
			calls++
			return model.EmptySnapshot("u", "2026-10-18"), nil
		},
	}, client, time.Hour)

	if _, err := cache.LoadSnapshot(t.Context(), "u", "2026-10-18"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected backend fallthrough, got %d calls", calls)
	}
}

func TestCacheRedisDownFallsThrough(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()
	cache := NewCache(&stubBackend{
		loadFn: func(context.Context, string, model.CalendarDate) (model.Snapshot, error) {
			return model.EmptySnapshot("u", "2026-10-18"), nil
		},
	}, client, time.Hour)

	if _, err := cache.LoadSnapshot(t.Context(), "u", "2026-10-18"); err != nil {
		t.Fatalf("redis outage must not fail load: %v", err)
	}
}

func TestCacheWithoutRedisClient(t *testing.T) {
	cache := NewCache(&stubBackend{
		loadFn: func(context.Context, string, model.CalendarDate) (model.Snapshot, error) {
			return model.EmptySnapshot("u", "2026-10-18"), nil
		},
	}, nil, time.Hour)
	if _, err := cache.LoadSnapshot(t.Context(), "u", "2026-10-18"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cache.Name() != "stub" {
		t.Fatalf("unexpected name %q", cache.Name())
	}
}
