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

	"github.com/dotolabs/doto/internal/api"
	"github.com/dotolabs/doto/internal/apperr"
	"github.com/dotolabs/doto/internal/backup"
	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/kvstore"
	"github.com/dotolabs/doto/internal/models"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/sse"
	"github.com/dotolabs/doto/internal/tagstore"
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

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	kv, err := kvstore.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer kv.Close()

	clk := clock.System{}

	store, tags, err := BuildStores(kv, clk, logger)
	if err != nil {
		return err
	}

	// SSE broker. Listeners registered below fan every mutation out to
	// connected clients.
	broker := sse.NewBroker()
	defer broker.Close()

	store.OnChange(func() { broker.Publish(sse.EventNotesChanged) })
	tags.OnChange(func() { broker.Publish(sse.EventTagsChanged) })

	apiRouter := api.NewRouter(store, tags, clk, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Start the backup drop-directory watcher when configured.
	if cfg.Import.WatchDir != "" {
		g.Go(func() error {
			apply := func(notes []models.Note) { store.ReplaceAllNotes(notes) }
			if err := backup.Watch(gCtx, cfg.Import.WatchDir, clk, apply, logger); err != nil {
				logger.Warn("import watcher stopped", slog.String("error", err.Error()))
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

// BuildStores loads tags and notes from the key-value store, runs pending
// migrations, and wires write-through persistence plus the tag-removal
// cascade. Shared by the server, the MCP server, and the CLI commands.
func BuildStores(kv kvstore.Store, clk clock.Clock, logger *slog.Logger) (*notestore.Store, *tagstore.Registry, error) {
	tags := tagstore.New()
	rawTags, err := kv.Get(tagstore.Key)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("load tags: %w", err)
	}
	tags.Load(rawTags, logger)

	store := notestore.New(clk)
	rawNotes, err := kv.Get(notestore.Key)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("load notes: %w", err)
	}
	store.Load(rawNotes, tags, logger)

	// Deleting a tag clears it from every note referencing it.
	tags.OnRemove(func(tagID string) { store.RemoveTagFromAllNotes(tagID) })

	// Write-through persistence: every successful mutation is flushed to
	// the key-value store. A failed flush is logged and the in-memory
	// state stays authoritative until the next write.
	store.OnChange(func() {
		data, err := store.Export()
		if err != nil {
			logger.Warn("notes export failed", slog.String("error", err.Error()))
			return
		}
		if err := kv.Set(notestore.Key, data); err != nil {
			logger.Warn("notes persist failed", slog.String("error", err.Error()))
		}
	})
	tags.OnChange(func() {
		data, err := tags.Export()
		if err != nil {
			logger.Warn("tags export failed", slog.String("error", err.Error()))
			return
		}
		if err := kv.Set(tagstore.Key, data); err != nil {
			logger.Warn("tags persist failed", slog.String("error", err.Error()))
		}
	})

	// Flush immediately so migrations and date advances performed during
	// load land on disk even if no further mutation happens.
	if data, err := store.Export(); err == nil {
		if err := kv.Set(notestore.Key, data); err != nil {
			logger.Warn("notes persist failed", slog.String("error", err.Error()))
		}
	}
	if data, err := tags.Export(); err == nil {
		if err := kv.Set(tagstore.Key, data); err != nil {
			logger.Warn("tags persist failed", slog.String("error", err.Error()))
		}
	}

	return store, tags, nil
}
