package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caevv/compactcols/internal/history"
)

func TestNewBoltStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer store.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("BoltDB file was not created")
	}
}

func TestBoltStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	if err := store.SaveBuild(testBuild("a", "job", 0, history.ResultSuccess)); err != nil {
		t.Fatalf("SaveBuild() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store, err = NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	// The bucket sequence survives the reopen.
	next := testBuild("b", "job", 0, history.ResultFailure)
	if err := store.SaveBuild(next); err != nil {
		t.Fatalf("SaveBuild() error = %v", err)
	}
	if next.Number != 2 {
		t.Errorf("Number = %d, want 2", next.Number)
	}
}

func TestBoltStore_RenumberedBuild(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer store.Close()

	b := testBuild("a", "job", 3, history.ResultSuccess)
	if err := store.SaveBuild(b); err != nil {
		t.Fatalf("SaveBuild() error = %v", err)
	}
	b.Number = 7
	if err := store.SaveBuild(b); err != nil {
		t.Fatalf("SaveBuild() error = %v", err)
	}

	builds, err := store.GetJobBuilds("job", 0)
	if err != nil {
		t.Fatalf("GetJobBuilds() error = %v", err)
	}
	if len(builds) != 1 || builds[0].Number != 7 {
		t.Errorf("GetJobBuilds() = %+v, want only #7", builds)
	}
}

func TestBoltStore_Close(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := store.SaveBuild(testBuild("a", "job", 1, history.ResultSuccess)); err == nil {
		t.Error("SaveBuild() after Close() should return error")
	}
}
