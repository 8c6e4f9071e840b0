package session

import (
	"fmt"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/internal/observability"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// NewStore creates a new Store based on the given type.
// The file store requires WithDirectory, the Redis store requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}

	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = observability.Logger()
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(config), nil

	case StoreTypeFile:
		if config.directory == "" {
			return nil, fmt.Errorf("%w: file store requires a directory", assistant.ErrInvalidConfig)
		}
		return newFileStore(config)

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, fmt.Errorf("%w: redis store requires a client", assistant.ErrInvalidConfig)
		}
		return newRedisStore(config), nil

	default:
		return nil, fmt.Errorf("%w: %q", assistant.ErrInvalidStoreType, string(storeType))
	}
}
