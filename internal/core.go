package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/taproom/internal/api"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/cache"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/media"
	"github.com/starford/taproom/internal/siteservice"
	"github.com/starford/taproom/internal/store"
)

// core holds the services shared by the HTTP server and the MCP server.
type core struct {
	cfg     *Config
	logger  *slog.Logger
	db      *store.DB
	lib     *media.Library
	redis   *cache.Redis
	content *contentservice.Service
	site    *siteservice.Service
	images  *media.Service
	users   *auth.Service
	authn   *auth.Authenticator
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stdout
	}
	return app, nil
}

// newLogger initializes the structured JSON logger and makes it the default.
func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openCore opens storage and builds the services. events may be nil. The
// caller must call close.
func openCore(ctx context.Context, cfg *Config, logger *slog.Logger, events contentservice.Publisher) (*core, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	c := &core{cfg: cfg, logger: logger, db: db}

	c.lib, err = media.NewLibrary(cfg.Media.Path, cfg.Media.PublicPrefix)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("init media: %w", err)
	}

	opts := []contentservice.Option{contentservice.WithLogger(logger)}
	if events != nil {
		opts = append(opts, contentservice.WithPublisher(events))
	}
	if cfg.Redis.Enabled() {
		c.redis, err = cache.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		opts = append(opts, contentservice.WithCache(c.redis))
	}

	var tokens *auth.Tokens
	if cfg.Auth.Mode == AuthModeSession {
		tokens = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	}

	var imageEvents media.Publisher
	if events != nil {
		imageEvents = events
	}

	c.content = contentservice.New(db, opts...)
	c.site = siteservice.New(db, logger)
	c.images = media.NewService(c.lib, db, imageEvents, logger)
	c.users = auth.NewService(db, tokens)
	c.authn = auth.NewAuthenticator(auth.Mode(cfg.Auth.Mode), cfg.Auth.Token, tokens, db, logger)
	return c, nil
}

// readiness lists the dependencies GET /health/ready checks.
func (c *core) readiness() map[string]api.Pinger {
	checks := map[string]api.Pinger{"sqlite": c.db.Ping}
	if c.redis != nil {
		checks["redis"] = c.redis.Ping
	}
	return checks
}

// syncMedia reconciles the images table with the uploads directory.
func (c *core) syncMedia(ctx context.Context) {
	start := time.Now()
	if err := c.images.Sync(ctx); err != nil {
		c.logger.Warn("initial media sync failed", slog.String("error", err.Error()))
		return
	}
	c.logger.Info("media sync complete", slog.Duration("took", time.Since(start)))
}

func (c *core) close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
