// Package storage provides the persistent key-value store used for
// settings and quota ledger state.
package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound indicates the key does not exist in the store.
	ErrNotFound = errors.New("storage: not found")
	// ErrStorageCorrupt indicates the store file could not be decoded.
	ErrStorageCorrupt = errors.New("storage: data corrupt")
	// ErrLockTimeout indicates a timeout acquiring the store file lock.
	ErrLockTimeout = errors.New("storage: lock timeout")
)

// StorageError wraps storage errors with context about what failed.
// Use errors.As() to extract operation details:
//
//	var storageErr *storage.StorageError
//	if errors.As(err, &storageErr) {
//		fmt.Printf("%s %q failed: %v\n", storageErr.Op, storageErr.Key, storageErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock").
	Op string
	// Key is the key involved, if any.
	Key string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the get/set-by-key contract consumed by the quota tracker and
// other components holding durable state.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores value under key, persisting immediately.
	Set(key, value string) error
	// Delete removes key from the store. Deleting a missing key is not an error.
	Delete(key string) error
}
