package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps all snapshots in a single JSON document on disk.
// Writes rewrite the whole file through a rename so a crash mid-write
// leaves the previous snapshot intact. Suited to single-instance and
// dev deployments; production uses the Redis store.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore opens (or lazily creates) the store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Set serializes value and rewrites the backing file.
func (s *FileStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadLocked()
	entries[key] = raw
	return s.flushLocked(entries)
}

// Get decodes the stored value into dest. Missing or undecodable
// entries report found=false.
func (s *FileStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.loadLocked()[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// corrupt snapshot: treat as absent
		return false, nil
	}
	return true, nil
}

// Remove deletes the entry if present.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadLocked()
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.flushLocked(entries)
}

func (s *FileStore) loadLocked() map[string]json.RawMessage {
	entries := map[string]json.RawMessage{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// unreadable file: start over rather than fail
		return map[string]json.RawMessage{}
	}
	return entries
}

func (s *FileStore) flushLocked(entries map[string]json.RawMessage) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}
