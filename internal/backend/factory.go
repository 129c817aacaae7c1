package backend

import (
	"context"
	"fmt"
	"net/url"

	applog "carteira/internal/log"
	"carteira/internal/storage"
	"carteira/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the store selected by config. SQL backends are
// migrated before they are returned.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLBackend(ctx, config.Type, storage.SQLite, config.SQLiteDBPath)
	case PostgresBackend:
		return f.createSQLBackend(ctx, config.Type, storage.Postgres, config.DatabaseURL)
	case MemoryBackend:
		return f.createMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, bt BackendType, dialect storage.Dialect, dsn string) (*BackendResult, error) {
	repo, err := storage.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", bt, err)
	}

	f.logger.Info("Initialized SQL backend", "backend", bt, "dsn", redactDSN(dsn))
	return &BackendResult{
		Store:   repo,
		Type:    bt,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Warn("Using in-memory backend, data is lost on restart")
	return &BackendResult{
		Store: memory.New(),
		Type:  MemoryBackend,
	}
}

// redactDSN hides the password of URL-style connection strings.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
