// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sornchai/sitetrack/internal/api"
	"github.com/sornchai/sitetrack/internal/mcpserver"
	"github.com/sornchai/sitetrack/internal/objstore"
	"github.com/sornchai/sitetrack/internal/prefs"
	"github.com/sornchai/sitetrack/internal/recordservice"
	"github.com/sornchai/sitetrack/internal/sse"
	"github.com/sornchai/sitetrack/internal/store"
	"github.com/sornchai/sitetrack/internal/uploader"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.Bool("bucket_enabled", cfg.Bucket.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the record repository.
	var repo store.Repository
	switch cfg.Store.Driver {
	case StoreDriverREST:
		repo = store.NewREST(store.RESTConfig{
			BaseURL: cfg.Store.REST.BaseURL,
			APIKey:  cfg.Store.REST.APIKey,
			Table:   cfg.Store.REST.Table,
		})
	default:
		db, err := store.OpenSQLite(cfg.Store.SQLite.Path)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer db.Close()
		repo = db
	}

	// Preference store.
	prefStore := prefs.NewStore(cfg.Prefs.Path, logger)

	svc := recordservice.NewService(repo, nil, prefStore)

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	// Object-storage bucket, when configured.
	var bucket *objstore.Client
	if cfg.Bucket.Enabled() {
		bucket = objstore.New(objstore.Config{
			BaseURL: cfg.Bucket.BaseURL,
			APIKey:  cfg.Bucket.APIKey,
			Bucket:  cfg.Bucket.Name,
		})
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Build API router. The Uploader is nil when no bucket is configured.
	var uploads api.Uploader
	if bucket != nil {
		uploads = bucket
	}
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, uploads)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the spool watcher when a bucket and spool dir are configured.
	if bucket != nil && cfg.Bucket.SpoolDir != "" {
		g.Go(func() error {
			err := uploader.New(cfg.Bucket.SpoolDir, bucket, logger, func(name, key, url string) {
				logger.Info("spool file uploaded",
					slog.String("name", name),
					slog.String("key", key),
					slog.String("url", url))
			}).Run(gCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("spool watcher: %w", err)
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
