package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	redisclient "github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/redis"
)

// RedisStore implements KeyValueStore on Redis strings
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves a value
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.Client().Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return result, nil
}

// Set stores a value without expiration
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Client().Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

// Exists checks if a key is present
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	result, err := s.client.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s in redis: %w", key, err)
	}
	return result > 0, nil
}

// Ping checks that Redis answers
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
