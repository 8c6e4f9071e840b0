package session

import "context"

// Store persists one snapshot per license key.
type Store interface {
	// Load returns the snapshot saved for key.
	// Returns nil if there is no entry or the entry is malformed (not an error).
	Load(ctx context.Context, key string) (*Snapshot, error)

	// Save stores a copy of snap under key. The last write wins.
	Save(ctx context.Context, key string, snap *Snapshot) error

	// Delete removes the snapshot for key.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases any resources.
	Close() error
}
