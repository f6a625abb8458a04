package providers

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key is absent
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistence collaborator holding serialized blobs
type KeyValueStore interface {
	// Get retrieves a value, returning ErrKeyNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key is present
	Exists(ctx context.Context, key string) (bool, error)
}
