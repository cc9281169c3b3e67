package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/fivetwenty-io/billing-client/internal/constants"
)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Address  string `mapstructure:"address"   yaml:"address"`
	Password string `mapstructure:"password"  yaml:"password"`
	DB       int    `mapstructure:"db"        yaml:"db"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`

	// Prefix namespaces every key.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// RedisStore keeps values in Redis.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		return nil, ErrRedisConfigRequired
	}

	address := config.Address
	if address == "" {
		address = constants.DefaultRedisAddress
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = constants.DefaultRedisPrefix
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, constants.StoreConnectTimeout)
	defer cancel()

	err := rdb.Ping(pingCtx).Err()
	if err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return "", fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	return value, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	err := s.rdb.Del(ctx, s.prefix+key).Err()
	if err != nil {
		return fmt.Errorf("failed to remove %s from Redis: %w", key, err)
	}

	return nil
}

// Close closes the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
