package cli

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"carteira/internal/amqp"
	"carteira/internal/backend"
	"carteira/internal/cache"
	"carteira/internal/config"
	"carteira/internal/core"
	apphttp "carteira/internal/http"
	applog "carteira/internal/log"
	"carteira/internal/services"
)

// App is the wired service graph over one backend.
type App struct {
	Config    *config.Config
	Logger    *applog.Logger
	Backend   *backend.BackendResult
	Services  apphttp.Services
	Publisher *amqp.Client

	cacheManager *cache.Manager
	redis        *redis.Client
}

// AppOptions select the optional collaborators NewApp connects to.
type AppOptions struct {
	// Publish connects to AMQP so mutations emit sync messages.
	Publish bool
	// Cache enables the dashboard caches.
	Cache bool
}

// NewApp builds the services on top of store. Optional collaborators that
// cannot be reached are logged and skipped; the app still works without
// them.
func NewApp(ctx context.Context, cfg *config.Config, res *backend.BackendResult, logger *applog.Logger, opts AppOptions) *App {
	app := &App{Config: cfg, Logger: logger, Backend: res}
	store := res.Store

	var dashOpts []services.DashboardOption
	if opts.Cache {
		dashOpts = app.initCaches(ctx)
	}
	dashboard := services.NewDashboardService(store, logger, dashOpts...)

	var publisher services.Publisher
	if opts.Publish && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync", applog.FieldError, err)
		} else {
			app.Publisher = client
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	app.Services = apphttp.Services{
		Accounts:     services.NewAccountService(store, logger),
		Transactions: services.NewTransactionService(store, publisher, dashboard, logger),
		Categories:   services.NewCategoryService(store, dashboard, logger),
		Dashboard:    dashboard,
		Backups:      services.NewBackupService(store, logger),
	}
	return app
}

// initCaches prefers Redis when configured so replicas share invalidations,
// falling back to per-process LRU caches.
func (a *App) initCaches(ctx context.Context) []services.DashboardOption {
	cfg := a.Config
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			a.redis = client
			a.Logger.Info("Using Redis dashboard cache", "ttl", cfg.CacheTTL)
			return []services.DashboardOption{
				services.WithSummaryCache(cache.NewRedisCache[core.FinancialSummary](client, "carteira:summary", cfg.CacheTTL, a.Logger)),
				services.WithReportCache(cache.NewRedisCache[core.MonthlyReport](client, "carteira:report", cfg.CacheTTL, a.Logger)),
				services.WithGenerations(cache.NewRedisGenerations(client, "carteira:gen", a.Logger)),
			}
		}
		a.Logger.Warn("Failed to connect to Redis, continuing with in-process cache", applog.FieldError, err)
	}

	summaries := cache.NewLRUCache[core.FinancialSummary](cfg.CacheSize, cfg.CacheTTL)
	reports := cache.NewLRUCache[core.MonthlyReport](cfg.CacheSize, cfg.CacheTTL)
	a.cacheManager = cache.NewManager(a.Logger)
	a.cacheManager.Register("summary", summaries)
	a.cacheManager.Register("report", reports)
	a.cacheManager.StartCleanup(cfg.CacheTTL)
	return []services.DashboardOption{
		services.WithSummaryCache(summaries),
		services.WithReportCache(reports),
	}
}

// Close releases every connection opened by NewApp and the backend.
func (a *App) Close() error {
	var errs []error
	if a.cacheManager != nil {
		a.cacheManager.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	errs = append(errs, a.Backend.Close())
	return errors.Join(errs...)
}
