package cachestore

import (
	"path/filepath"
	"testing"
)

func openTestBackend(t *testing.T, path string) *SQLiteBackend {
	t.Helper()
	backend, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	backend := openTestBackend(t, filepath.Join(t.TempDir(), "cache.db"))

	if err := backend.Set("k1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, found, err := backend.Get("k1")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v), want found", found, err)
	}
	if string(value) != "v1" {
		t.Errorf("value = %q, want v1", value)
	}
}

func TestSQLiteBackendOverwrite(t *testing.T) {
	backend := openTestBackend(t, filepath.Join(t.TempDir(), "cache.db"))

	if err := backend.Set("k", []byte("old")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := backend.Set("k", []byte("new")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	value, _, err := backend.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "new" {
		t.Errorf("value = %q, want new", value)
	}
}

func TestSQLiteBackendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Set("durable", []byte("yes")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := openTestBackend(t, path)
	value, found, err := second.Get("durable")
	if err != nil || !found {
		t.Fatalf("Get after reopen = (%v, %v)", found, err)
	}
	if string(value) != "yes" {
		t.Errorf("value = %q, want yes", value)
	}
}

func TestSQLiteBackendKeysAndDelete(t *testing.T) {
	backend := openTestBackend(t, filepath.Join(t.TempDir(), "cache.db"))

	for _, key := range []string{"b", "a", "c"} {
		if err := backend.Set(key, []byte("x")); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	keys, err := backend.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 3 || keys[0] != "a" {
		t.Errorf("Keys = %v", keys)
	}

	if err := backend.Delete("b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := backend.Get("b"); found {
		t.Error("deleted key still present")
	}
	// Deleting an absent key is not an error.
	if err := backend.Delete("missing"); err != nil {
		t.Errorf("Delete absent key: %v", err)
	}
}

func TestStoreOverSQLite(t *testing.T) {
	backend := openTestBackend(t, filepath.Join(t.TempDir(), "cache.db"))
	store := New(backend, nil)

	store.Set("emby_check_157336", map[string]any{"Name": "Interstellar"}, 60)
	if !store.Has("emby_check_157336") {
		t.Error("expected hit through sqlite backend")
	}
}

func TestMaintenanceLockExcludes(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "cache.lock")

	release, err := AcquireMaintenanceLock(lockPath)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := AcquireMaintenanceLock(lockPath); err == nil {
		t.Error("second acquire should fail while lock held")
	}
	release()

	release2, err := AcquireMaintenanceLock(lockPath)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}
