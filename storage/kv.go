package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// KVStore implements Store using a single JSON file. Writes go through an
// atomic temp-file+rename so the file is never left half-written, and an
// advisory file lock keeps concurrent processes from clobbering each other.
type KVStore struct {
	path string
	lock *FileLock
	data *storeData
	mu   sync.RWMutex
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version   string            `json:"version"`
	StoreID   string            `json:"store_id"`
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// NewKVStore creates a new JSON file store at the given path.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewKVStore(path string) (*KVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "create", Err: err}
		}
	}

	s := &KVStore{
		path: path,
		lock: NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// load reads the JSON file into memory. Creates empty data if file doesn't exist.
func (s *KVStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Err: ErrStorageCorrupt}
	}
	if s.data.Values == nil {
		s.data.Values = make(map[string]string)
	}

	return nil
}

// save persists the data to disk atomically.
func (s *KVStore) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	return nil
}

// Close releases resources held by the store.
func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	return &storeData{
		Version:   schemaVersion,
		StoreID:   uuid.NewString(),
		UpdatedAt: time.Now(),
		Values:    make(map[string]string),
	}
}

// Get returns the value for key and whether it was present.
func (s *KVStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data.Values[key]
	return value, exists
}

// Set stores value under key, persisting immediately.
func (s *KVStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Values[key] = value
	return s.save()
}

// Delete removes key from the store. Deleting a missing key is not an error.
func (s *KVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Values[key]; !exists {
		return nil
	}
	delete(s.data.Values, key)
	return s.save()
}
