package kvstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
)

// MemoryStore keeps values in process memory. Nothing expires.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

// Get retrieves a copy of the stored value
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, providers.ErrKeyNotFound
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Set stores a copy of value
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.cache.Set(key, append([]byte(nil), value...), cache.NoExpiration)
	return nil
}

// Delete removes a key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Exists checks if a key is present
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.cache.Get(key)
	return ok, nil
}
