// Package http exposes the JSON API consumed by the web client.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
	"carteira/internal/services"
)

// HeaderUserID carries the identity forwarded by the authenticating proxy.
const HeaderUserID = "X-User-ID"

// Services bundles the application services behind the API.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Dashboard    *services.DashboardService
	Backups      *services.BackupService
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure NewServer.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// BlockSuspicious rejects requests the detector flags instead of only
	// logging them.
	BlockSuspicious bool
}

type Server struct {
	http.Server
	engine   *gin.Engine
	svc      Services
	store    Pinger
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(opts Options, svc Services, store Pinger, logger *applog.Logger) *Server {
	s := &Server{
		svc:    svc,
		store:  store,
		logger: logger.WithComponent(applog.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		tracer:   trace.NewMiddleware(logger),
		detector: security.NewDetector(logger),
		started:  time.Now(),
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(security.TrustedProxies); err != nil {
		s.logger.Warn("Invalid trusted proxy list", applog.FieldError, err)
	}
	engine.Use(
		gin.CustomRecovery(s.recoverPanic),
		s.tracer.Handler(),
		security.Headers(security.DefaultHeadersConfig()),
		s.detector.Middleware(opts.BlockSuspicious),
		cors.New(corsConfig(opts.CORSAllowedOrigins)),
	)
	s.engine = engine
	s.routes()

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderUserID, trace.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.GET("/metrics", s.handleMetrics)

	api := r.Group("/api")
	api.Use(s.limiter.Middleware(rateLimitKey))

	// Registration happens before the user exists, so it cannot go through
	// requireUser.
	api.POST("/users", s.handleRegister)

	authed := api.Group("")
	authed.Use(s.requireUser())

	authed.GET("/me", s.handleMe)
	authed.GET("/settings", s.handleGetSettings)
	authed.PUT("/settings", s.handleUpdateSettings)

	for _, group := range []struct {
		path string
		h    transactionHandlers
	}{
		{"/incomes", s.transactionHandlers(core.KindIncome)},
		{"/expenses", s.transactionHandlers(core.KindExpense)},
	} {
		g := authed.Group(group.path)
		g.GET("", group.h.list)
		g.POST("", group.h.create)
		g.GET("/:id", group.h.get)
		g.PATCH("/:id", group.h.update)
		g.DELETE("/:id", group.h.remove)
	}
	authed.GET("/transactions.csv", s.handleTransactionsCSV)

	authed.GET("/categories", s.handleListCategories)
	authed.POST("/categories", s.handleCreateCategory)
	authed.PATCH("/categories/:type/:id", s.handleUpdateCategory)
	authed.DELETE("/categories/:type/:id", s.handleDeleteCategory)

	authed.GET("/dashboard/summary", s.handleSummary)
	authed.GET("/reports/monthly", s.handleMonthlyReport)
	authed.GET("/reports/monthly.csv", s.handleMonthlyReportCSV)
	authed.GET("/projection", s.handleProjection)

	authed.POST("/backups", s.handleCreateBackup)
	authed.GET("/backups", s.handleListBackups)
	authed.GET("/backups/export", s.handleExportBackup)
	authed.GET("/backups/:id", s.handleGetBackup)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// rateLimitKey limits per forwarded identity, falling back to the client IP
// for anonymous calls.
func rateLimitKey(c *gin.Context) string {
	if id := c.GetHeader(HeaderUserID); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	applog.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Panic while serving request",
		"panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
