package tokenstore

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := TokenPair{AccessToken: "access-abc", RefreshToken: "refresh-xyz"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false after Save")
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true for empty store")
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, ok, _ := store.Load(); ok {
		t.Error("Load() ok = true after Clear")
	}

	// Clearing twice is fine
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on empty store error = %v", err)
	}
}

func TestSaveOverwritesWholePair(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(TokenPair{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(TokenPair{AccessToken: "a2", RefreshToken: "r2"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load() = ok:%v err:%v", ok, err)
	}
	if got.AccessToken != "a2" || got.RefreshToken != "r2" {
		t.Errorf("Load() = %+v, want the second pair", got)
	}
}
