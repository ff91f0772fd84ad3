package archive

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore()
	path := filepath.Join(t.TempDir(), "archive.db")
	if err := store.Initialize(path); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSaveAndLookup(t *testing.T) {
	store := newTestStore(t)

	created := time.Unix(1724932800, 0)
	if err := store.Save("fp1", "pawn1", "A quiet day.", created); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entry, found, err := store.Lookup("fp1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found {
		t.Fatal("Expected entry to be found")
	}
	if entry.EntityID != "pawn1" {
		t.Errorf("Expected entity pawn1, got %s", entry.EntityID)
	}
	if entry.Summary != "A quiet day." {
		t.Errorf("Expected summary %q, got %q", "A quiet day.", entry.Summary)
	}
	if !entry.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, entry.CreatedAt)
	}
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	store := newTestStore(t)

	store.Save("fp1", "pawn1", "first", time.Now())
	if err := store.Save("fp1", "pawn1", "second", time.Now()); err != nil {
		t.Fatalf("Replacing save failed: %v", err)
	}

	entry, found, err := store.Lookup("fp1")
	if err != nil || !found {
		t.Fatalf("Lookup failed: found=%t err=%v", found, err)
	}
	if entry.Summary != "second" {
		t.Errorf("Expected replaced summary, got %q", entry.Summary)
	}
}

func TestSQLiteStoreLookupMissing(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Lookup("absent")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found {
		t.Error("Expected no entry for an unknown fingerprint")
	}
}

func TestSQLiteStoreRecent(t *testing.T) {
	store := newTestStore(t)

	base := time.Unix(1724932800, 0)
	store.Save("fp1", "pawn1", "oldest", base)
	store.Save("fp2", "pawn1", "middle", base.Add(time.Hour))
	store.Save("fp3", "pawn2", "newest", base.Add(2*time.Hour))

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fingerprint != "fp3" || entries[1].Fingerprint != "fp2" {
		t.Errorf("Expected newest first, got %s then %s", entries[0].Fingerprint, entries[1].Fingerprint)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	store := newTestStore(t)

	store.Save("fp1", "pawn1", "s", time.Now())
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, found, err := store.Lookup("fp1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found {
		t.Error("Expected no entries after Clear")
	}
}

func TestSQLiteStoreUninitialized(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Save("fp1", "pawn1", "s", time.Now()); err == nil {
		t.Error("Expected Save to fail on an uninitialized store")
	}
	if _, _, err := store.Lookup("fp1"); err == nil {
		t.Error("Expected Lookup to fail on an uninitialized store")
	}
}
