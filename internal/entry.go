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

	"github.com/starford/taproom/internal/api"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/mcpserver"
	"github.com/starford/taproom/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("media_path", cfg.Media.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("redis_cache", cfg.Redis.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := openCore(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.close(); err != nil {
			logger.Error("close failed", slog.String("error", err.Error()))
		}
	}()

	c.syncMedia(ctx)

	apiRouter := api.NewRouter(api.Services{
		Content:       c.content,
		Site:          c.site,
		Media:         c.images,
		Users:         c.users,
		Authenticator: c.authn,
		Events:        broker,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", api.Live)
	r.Get("/health/ready", api.Ready(c.readiness()))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Uploaded images are public.
	r.Get(cfg.Media.PublicPrefix+"/{filename}", api.ServeUploads(c.lib))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the images table in step with files copied into the uploads dir.
	g.Go(func() error {
		if err := c.images.Watch(gCtx); err != nil {
			logger.Warn("media watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

// RunMCP serves the page builder tools on stdin/stdout. Logs go to the
// configured log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := openCore(ctx, app.config, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	c.syncMedia(ctx)
	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.content, c.images).ServeStdio()
}

// CreateUser adds an account directly, bypassing the HTTP API. It is how the
// first admin is seeded.
func CreateUser(ctx context.Context, cfg *Config, in auth.NewUser) error {
	app, err := newApplication([]Option{WithConfig(cfg), WithLogOutput(os.Stderr)})
	if err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := openCore(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	u, err := c.users.Create(ctx, auth.LocalAdmin, in)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	logger.Info("user created", slog.Int64("id", u.ID), slog.String("email", u.Email), slog.String("role", u.Role))
	return nil
}
