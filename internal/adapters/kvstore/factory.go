package kvstore

import (
	"context"
	"fmt"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/postgres"
	redisclient "github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospitalpowermonitor/pkg/config"
)

// Backend is an opened store plus the resources to release on shutdown
type Backend struct {
	Store providers.KeyValueStore
	// Redis is set when the driver connected to Redis, so the event bus can share it
	Redis   *redisclient.Client
	closers []func() error
}

// Close releases every resource opened for the backend
func (b *Backend) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that the store answers. Stores without a probe are always ready.
func (b *Backend) Ping(ctx context.Context) error {
	if p, ok := b.Store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Open creates the KeyValueStore selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		return &Backend{Store: NewMemoryStore()}, nil

	case config.DriverRedis:
		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: NewRedisStore(client), Redis: client, closers: []func() error{client.Close}}, nil

	case config.DriverPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(client)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Backend{Store: store, closers: []func() error{client.Close}}, nil

	case config.DriverSQLite:
		store, err := NewSQLiteStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, closers: []func() error{store.Close}}, nil

	case config.DriverS3:
		store, err := NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
