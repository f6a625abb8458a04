package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/hospitalpowermonitor/internal/domain/providers"
	"github.com/zatekoja/hospitalpowermonitor/internal/infrastructure/clients/postgres"
)

const kvTable = "kv_store"

const createPostgresTable = `CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore implements KeyValueStore on a single PostgreSQL table
type PostgresStore struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// EnsureSchema creates the backing table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB().ExecContext(ctx, createPostgresTable); err != nil {
		return fmt.Errorf("failed to create %s table: %w", kvTable, err)
	}
	return nil
}

// Get retrieves a value
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := s.db.From(kvTable).Prepared(true).
		Select("value").
		Where(goqu.Ex{"key": key}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var value []byte
	err = s.client.DB().QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a value
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := s.db.Insert(kvTable).Prepared(true).
		Rows(goqu.Record{
			"key":        key,
			"value":      value,
			"updated_at": s.now().UTC(),
		}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"value":      goqu.I("excluded.value"),
			"updated_at": goqu.I("excluded.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.db.Delete(kvTable).Prepared(true).
		Where(goqu.Ex{"key": key}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key is present
func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := s.db.From(kvTable).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"key": key}).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := s.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return count > 0, nil
}

// Ping checks that the database answers
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
