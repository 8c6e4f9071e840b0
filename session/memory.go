package session

import (
	"context"
	"sync"
)

// memoryStore keeps encoded snapshots in a map. Storing bytes rather than
// pointers guarantees callers never share state with the store.
type memoryStore struct {
	mu      sync.RWMutex
	config  *storeConfig
	entries map[string][]byte
}

func newMemoryStore(config *storeConfig) *memoryStore {
	return &memoryStore{
		config:  config,
		entries: make(map[string][]byte),
	}
}

// Load implements Store.
func (s *memoryStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, exists := s.entries[s.config.storageKey(key)]
	if !exists {
		return nil, nil
	}
	snap := decode(raw)
	if snap == nil {
		s.config.logger.Debug("discarding malformed snapshot", "key", key, "store", "memory")
	}
	return snap, nil
}

// Save implements Store.
func (s *memoryStore) Save(ctx context.Context, key string, snap *Snapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.config.storageKey(key)] = raw
	return nil
}

// Delete implements Store.
func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, s.config.storageKey(key))
	return nil
}

// Close implements Store.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string][]byte)
	return nil
}
