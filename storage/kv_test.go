package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKVStoreSetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore() error = %v", err)
	}
	defer store.Close()

	if _, ok := store.Get("missing"); ok {
		t.Error("Get() on empty store should report missing")
	}

	if err := store.Set("quota_units_used", "150"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := store.Get("quota_units_used")
	if !ok || got != "150" {
		t.Errorf("Get() = %q, %v, want %q, true", got, ok, "150")
	}
}

func TestKVStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore() error = %v", err)
	}
	if err := store.Set("quota_reset_date", "2026-8-25"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore() reopen error = %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("quota_reset_date")
	if !ok || got != "2026-8-25" {
		t.Errorf("Get() after reopen = %q, %v, want %q, true", got, ok, "2026-8-25")
	}
}

func TestKVStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore() error = %v", err)
	}
	defer store.Close()

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := store.Get("k"); ok {
		t.Error("Get() after Delete() should report missing")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete("k"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestKVStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewKVStore(path)
	if !errors.Is(err, ErrStorageCorrupt) {
		t.Errorf("NewKVStore() on corrupt file error = %v, want ErrStorageCorrupt", err)
	}
}

func TestAtomicWriterCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter() error = %v", err)
	}
	if _, err := writer.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("file contents = %q, want %q", data, "hello")
	}
}

func TestAtomicWriterAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	writer, err := NewAtomicWriter(path)
	if err != nil {
		t.Fatalf("NewAtomicWriter() error = %v", err)
	}
	if _, err := writer.Write([]byte("partial")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("target file should not exist after Abort, stat err = %v", err)
	}
}
