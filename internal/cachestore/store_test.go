package cachestore

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return New(NewMemoryBackend(), nil, WithClock(clock.Now)), clock
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	store.Set("tmdb_search_movie_inception", []string{"a", "b"}, 60)

	raw, ok := store.Get("tmdb_search_movie_inception")
	if !ok {
		t.Fatal("expected hit immediately after set")
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		t.Fatalf("unmarshal cached value: %v", err)
	}
	if len(values) != 2 || values[0] != "a" {
		t.Errorf("unexpected value: %v", values)
	}
}

func TestGetAfterTTLExpiresAndDeletes(t *testing.T) {
	store, clock := newTestStore(t)

	store.Set("emby_search_dune", "payload", 30)
	clock.Advance(31 * time.Minute)

	if _, ok := store.Get("emby_search_dune"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
	if store.Has("emby_search_dune") {
		t.Error("Has should report false for expired entry")
	}
	// Lazy deletion removed the entry from the key listing.
	if keys := store.ListKeys(); len(keys) != 0 {
		t.Errorf("expired entry not deleted: %v", keys)
	}
}

func TestCachedNullIsAHit(t *testing.T) {
	store, _ := newTestStore(t)

	store.Set("tmdb_search_movie_missing", nil, 5)

	raw, ok := store.Get("tmdb_search_movie_missing")
	if !ok {
		t.Fatal("cached null should be a present entry, not a miss")
	}
	if string(raw) != "null" {
		t.Errorf("raw value = %q, want null", raw)
	}
}

func TestOverwriteReplacesEntry(t *testing.T) {
	store, _ := newTestStore(t)

	store.Set("k", "first", 60)
	store.Set("k", "second", 60)

	raw, ok := store.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if value != "second" {
		t.Errorf("value = %q, want second", value)
	}
}

func TestCorruptEntrySelfHeals(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend, nil)

	if err := backend.Set(DefaultPrefix+"broken", []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, ok := store.Get("broken"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
	if _, found, _ := backend.Get(DefaultPrefix + "broken"); found {
		t.Error("corrupt entry should have been deleted")
	}
}

func TestDeleteAbsentKeyIsQuiet(t *testing.T) {
	store, _ := newTestStore(t)
	store.Delete("never_set")
}

func TestClearAllAndFiltered(t *testing.T) {
	store, _ := newTestStore(t)

	store.Set("tmdb_search_movie_x", 1, 60)
	store.Set("tmdb_details_movie_9", 2, 60)
	store.Set("emby_search_x", 3, 60)

	if n := store.Clear("tmdb"); n != 2 {
		t.Errorf("Clear(tmdb) = %d, want 2", n)
	}
	if !store.Has("emby_search_x") {
		t.Error("unfiltered entry should survive")
	}

	store.Set("tmdb_search_movie_x", 1, 60)
	if n := store.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if keys := store.ListKeys(); len(keys) != 0 {
		t.Errorf("keys remain after full clear: %v", keys)
	}
}

func TestListKeysUnprefixed(t *testing.T) {
	store, _ := newTestStore(t)

	store.Set("b_key", 1, 60)
	store.Set("a_key", 2, 60)

	keys := store.ListKeys()
	if len(keys) != 2 || keys[0] != "a_key" || keys[1] != "b_key" {
		t.Errorf("ListKeys = %v", keys)
	}
}

func TestCleanExpired(t *testing.T) {
	store, clock := newTestStore(t)

	store.Set("short", 1, 10)
	store.Set("long", 2, 120)
	clock.Advance(30 * time.Minute)

	if n := store.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if !store.Has("long") {
		t.Error("unexpired entry should survive the sweep")
	}
}

func TestCleanExpiredDeletesCorrupt(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend, nil)

	if err := backend.Set(DefaultPrefix+"bad", []byte("garbage")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n := store.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
}

func TestStatsCountsAndFormat(t *testing.T) {
	store, _ := newTestStore(t)

	if got := store.Stats(); got.HitRate != "0.00%" {
		t.Errorf("empty hit rate = %q, want 0.00%%", got.HitRate)
	}

	store.Set("present", 1, 60)
	// 3 hits, 1 miss.
	for i := 0; i < 3; i++ {
		store.Get("present")
	}
	store.Get("absent")

	stats := store.Stats()
	if stats.Hits != 3 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HitRate != "75.00%" {
		t.Errorf("hit rate = %q, want 75.00%%", stats.HitRate)
	}

	store.ResetStats()
	stats = store.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Sets != 0 {
		t.Errorf("stats after reset = %+v", stats)
	}
	if !store.Has("present") {
		t.Error("ResetStats must not touch stored entries")
	}
}
