package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/config"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/logger"
	"github.com/organizador/platform/internal/storage"
)

func TestOpenMemory(t *testing.T) {
	backend, err := storage.Open(context.Background(), config.Config{DataBackend: config.BackendMemory}, logger.Discard())
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, "memory", backend.Name)
	assert.False(t, backend.Persistent)
	_, err = domain.New(backend.Options(nil))
	assert.NoError(t, err)
}

func TestOpenSQLiteMigrates(t *testing.T) {
	cfg := config.Config{
		DataBackend:    config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "organizador.db"),
		DBMaxOpenConns: 1,
	}
	ctx := context.Background()

	backend, err := storage.Open(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	defer backend.Close()
	assert.True(t, backend.Persistent)

	services, err := domain.New(backend.Options(nil))
	require.NoError(t, err)
	created, err := services.Users.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	again, err := storage.Open(ctx, cfg, logger.Discard())
	require.NoError(t, err, "migrations apply once")
	require.NoError(t, again.Close())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := storage.Open(context.Background(), config.Config{DataBackend: "mongo"}, logger.Discard())
	assert.Error(t, err)
}
