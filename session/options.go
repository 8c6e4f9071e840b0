package session

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "widget_state:"
	defaultScope = "default"
)

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

// storeConfig holds configuration for session stores.
type storeConfig struct {
	scope       string
	directory   string
	redisClient *redis.Client
	redisTTL    time.Duration
	logger      *slog.Logger
}

// WithScope namespaces keys by origin, so two sites sharing a backend never
// read each other's state.
func WithScope(scope string) StoreOption {
	return func(c *storeConfig) {
		c.scope = scope
	}
}

// WithDirectory sets the directory used by the file store.
func WithDirectory(dir string) StoreOption {
	return func(c *storeConfig) {
		c.directory = dir
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the TTL for Redis keys. Zero keeps keys without expiry.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithLogger sets the logger used to report discarded entries.
func WithLogger(l *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = l
	}
}

// storageKey builds the scoped key for a license key.
func (c *storeConfig) storageKey(key string) string {
	scope := c.scope
	if scope == "" {
		scope = defaultScope
	}
	return keyPrefix + scope + ":" + key
}
