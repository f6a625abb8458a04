package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospitalpowermonitor/pkg/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		backend, err := Open(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, backend.Store)
		assert.Nil(t, backend.Redis)
		assert.NoError(t, backend.Ping(ctx))
		assert.NoError(t, backend.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Driver = config.DriverSQLite
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "sectors.db")

		backend, err := Open(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &SQLiteStore{}, backend.Store)
		assert.NoError(t, backend.Ping(ctx))
		assert.NoError(t, backend.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Driver = "etcd"
		_, err := Open(ctx, cfg)
		require.Error(t, err)
	})
}
