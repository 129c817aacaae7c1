package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/backend"
	"carteira/internal/config"
	"carteira/internal/core"
	applog "carteira/internal/log"
)

func TestSetupLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	logger := SetupLogger(applog.ComponentCLI, &buf)
	logger.Debug("hello")

	assert.Equal(t, applog.ComponentCLI, logger.Component())
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	logger := SetupLogger(applog.ComponentApp, &buf)
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func newMemoryApp(t *testing.T, opts AppOptions) *App {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		DataBackend: config.BackendMemory,
		CacheTTL:    time.Minute,
		CacheSize:   10,
	}
	logger := applog.Discard()
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backend.Config{Type: backend.MemoryBackend})
	require.NoError(t, err)

	app := NewApp(ctx, cfg, res, logger, opts)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_WiresServices(t *testing.T) {
	app := newMemoryApp(t, AppOptions{Cache: true, Publish: true})
	ctx := context.Background()

	assert.Nil(t, app.Publisher)
	require.NotNil(t, app.cacheManager)

	_, err := app.Services.Accounts.Register(ctx, core.User{ID: "u1", Email: "u1@example.com", DisplayName: "Ana"})
	require.NoError(t, err)
	user, err := app.Services.Accounts.Resolve(ctx, "u1")
	require.NoError(t, err)

	amount := core.Cents(12_50)
	tx := core.NewExpense(user.ID, amount, "coffee", "Food", core.DateOf(time.Now()), core.PaymentDebit)
	_, err = app.Services.Transactions.Create(ctx, user, tx)
	require.NoError(t, err)

	summary, err := app.Services.Dashboard.Summary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, amount, summary.TotalExpense)
	assert.Equal(t, amount, summary.ExpensesByCategory["Food"])
}

func TestNewApp_WithoutCache(t *testing.T) {
	app := newMemoryApp(t, AppOptions{})
	assert.Nil(t, app.cacheManager)
	assert.Nil(t, app.redis)
	assert.NotNil(t, app.Services.Backups)
}
