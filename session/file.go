package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// fileStore writes one JSON document per key into a directory.
type fileStore struct {
	mu     sync.Mutex
	dir    string
	config *storeConfig
}

func newFileStore(config *storeConfig) (*fileStore, error) {
	if err := os.MkdirAll(config.directory, 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &fileStore{dir: config.directory, config: config}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(s.config.storageKey(key))+".json")
}

// Load implements Store.
func (s *fileStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := decode(raw)
	if snap == nil {
		s.config.logger.Debug("discarding malformed snapshot", "key", key, "store", "file")
	}
	return snap, nil
}

// Save implements Store. The document is written to a temporary file and
// renamed so a crash never leaves a half-written snapshot behind.
func (s *fileStore) Save(ctx context.Context, key string, snap *Snapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Delete implements Store.
func (s *fileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close implements Store.
func (s *fileStore) Close() error {
	return nil
}
