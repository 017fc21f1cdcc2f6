// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/inkwell-sh/inkwell/internal/cache"
	"github.com/inkwell-sh/inkwell/internal/config"
	"github.com/inkwell-sh/inkwell/internal/content"
	"github.com/inkwell-sh/inkwell/internal/gate"
	"github.com/inkwell-sh/inkwell/internal/handler"
	"github.com/inkwell-sh/inkwell/internal/handler/api"
	"github.com/inkwell-sh/inkwell/internal/logging"
	"github.com/inkwell-sh/inkwell/internal/mailer"
	"github.com/inkwell-sh/inkwell/internal/middleware"
	"github.com/inkwell-sh/inkwell/internal/ratelimit"
	"github.com/inkwell-sh/inkwell/internal/scheduler"
	"github.com/inkwell-sh/inkwell/internal/session"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/usage"
	"github.com/inkwell-sh/inkwell/internal/webhook"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Inkwell - Multi-tenant blogging platform\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_DB_PATH           SQLite database path (default: ./data/inkwell.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_REDIS_URL         Redis URL for distributed caching and rate limiting (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("inkwell %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	queries := store.New(db)
	ctx := context.Background()

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize the read-through cache. Redis failure falls back to memory;
	// a single node serves fine from its own heap.
	cacheConfig := cache.Config{
		Type:            "memory",
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}
	if cfg.UseRedis() {
		cacheConfig.Type = "redis"
	}
	cacher, err := cache.New(cacheConfig)
	switch {
	case err != nil:
		slog.Warn("cache backend unavailable, using in-memory fallback", "error", err)
		cacheConfig.Type = "memory"
		if cacher, err = cache.New(cacheConfig); err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
		slog.Info("cache initialized", "backend", "memory", "note", "Redis unavailable, using fallback")
	case cfg.UseRedis():
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	default:
		slog.Info("cache initialized", "backend", "memory")
	}

	invalidator := cache.NewInvalidator(cacher, logger)

	// Per-key sliding window limiter for the public API. The memory variant
	// needs periodic sweeping; Redis handles expiry itself.
	limiterConfig := ratelimit.Config{
		Window: time.Duration(cfg.RateLimitWindow) * time.Second,
		Limit:  int64(cfg.RateLimitMax),
	}
	var limiter ratelimit.Limiter
	var sweeper scheduler.Sweeper
	if cfg.UseRedis() {
		redisLimiter, err := ratelimit.NewRedisLimiterFromURL(cfg.RedisURL, cfg.CachePrefix, limiterConfig)
		if err != nil {
			return fmt.Errorf("initializing rate limiter: %w", err)
		}
		limiter = redisLimiter
		slog.Info("rate limiter initialized", "backend", "redis",
			"window", limiterConfig.Window, "limit", limiterConfig.Limit)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(limiterConfig)
		limiter = memLimiter
		sweeper = memLimiter
		slog.Info("rate limiter initialized", "backend", "memory",
			"window", limiterConfig.Window, "limit", limiterConfig.Limit)
	}

	// Usage metering with debounced quota warnings
	usageMailer := mailer.NewLogMailer(logger)
	meter := usage.NewMeter(queries, usageMailer, logger)
	apiGate := gate.New(queries, limiter, meter, logger)

	// Initialize and start webhook dispatcher
	dispatcher := webhook.NewDispatcher(db, logger, webhook.Config{
		Workers:   cfg.WebhookWorkers,
		QueueSize: cfg.WebhookQueueSize,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	slog.Info("webhook dispatcher initialized", "workers", cfg.WebhookWorkers)

	// Content lifecycle service; the dispatcher receives publish events
	contentService := content.NewService(db, invalidator, dispatcher, logger)

	// Initialize and start scheduler (monthly view reset, limiter sweep)
	sched := scheduler.New(db, logger, sweeper)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Per-IP limiter for login and public write endpoints
	publicRateLimiter := middleware.NewGlobalRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	slog.Info("public rate limiter initialized",
		"rate", cfg.LoginRateLimit, "burst", cfg.LoginRateBurst)

	apiHandler := api.NewHandler(db, cacher, meter, logger)
	adminHandler := handler.NewHandler(db, sessionManager, contentService, invalidator, logger)
	adminHandler.SetLoginLimiter(publicRateLimiter.Middleware())

	// Create router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	healthHandler := handler.NewHealthHandler(db, cacher)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public API v1: every route sits behind the gatekeeper
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiGate.Authorize)

		r.Get("/status", apiHandler.Status)
		r.Get("/auth", apiHandler.AuthInfo)

		r.Get("/posts", apiHandler.ListPosts)
		r.Get("/posts/{slug}", apiHandler.GetPost)
		r.Get("/posts/{slug}/comments", apiHandler.ListComments)
		r.With(publicRateLimiter.Middleware()).Post("/posts/{slug}/comments", apiHandler.CreateComment)

		r.Get("/categories", apiHandler.ListCategories)
		r.Get("/tags", apiHandler.ListTags)
		r.Get("/tags/{slug}", apiHandler.GetTag)

		r.With(publicRateLimiter.Middleware()).Post("/newsletter", apiHandler.Subscribe)
		r.Get("/newsletter/count", apiHandler.SubscriberCount)
	})
	slog.Info("public API mounted at /api/v1")

	// Authoring routes: session-backed, CSRF-protected
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)

	r.Route("/admin", func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)
		r.Mount("/", adminHandler.Routes())
	})
	slog.Info("authoring API mounted at /admin", "csrf", true)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
