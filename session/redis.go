package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store using plain GET/SET; the last write wins.
type redisStore struct {
	client *redis.Client
	config *storeConfig
}

func newRedisStore(config *storeConfig) *redisStore {
	return &redisStore{
		client: config.redisClient,
		config: config,
	}
}

// Load implements Store.
func (s *redisStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	val, err := s.client.Get(ctx, s.config.storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := decode(val)
	if snap == nil {
		s.config.logger.Debug("discarding malformed snapshot", "key", key, "store", "redis")
	}
	return snap, nil
}

// Save implements Store.
func (s *redisStore) Save(ctx context.Context, key string, snap *Snapshot) error {
	val, err := encode(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.config.storageKey(key), val, s.config.redisTTL).Err()
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.config.storageKey(key)).Err()
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}
