package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/config"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "postgres",
		SQLiteDBPath: "ignored.db",
		DatabaseURL:  "postgres://app:secret@db/carteira",
	})
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.Equal(t, "postgres://app:secret@db/carteira", cfg.DatabaseURL)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite", "postgres"}, GetBackendTypeStrings())
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(applog.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	assert.NoError(t, res.Close())
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "carteira.db")

	res, err := NewFactory(applog.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Equal(t, SQLiteBackend, res.Type)
	require.NoError(t, res.Store.Ping(ctx))

	_, err = res.Store.CreateUser(ctx, core.User{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	users, err := res.Store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	_, err := NewFactory(applog.Discard()).CreateBackend(context.Background(), Config{Type: PostgresBackend})
	assert.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db/carteira", redactDSN("postgres://app:secret@db/carteira"))
	assert.Equal(t, "./data/carteira.db", redactDSN("./data/carteira.db"))
}

func TestBackendResultClose_Nil(t *testing.T) {
	var res *BackendResult
	assert.NoError(t, res.Close())
}
