package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeSession  = "session"
)

// MinJWTSecretLength is the shortest accepted session signing secret.
const MinJWTSecretLength = 16

var (
	prefixRe   = regexp.MustCompile(`^/[A-Za-z0-9._~/-]*[A-Za-z0-9._~-]$`)
	redisURLRe = regexp.MustCompile(`^(rediss?|unix)://`)
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Media  MediaConfig       `yaml:"media"`
	Auth   AuthConfig        `yaml:"auth"`
	Redis  RedisConfig       `yaml:"redis"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Redis.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MediaConfig holds the uploads directory and the URL prefix it is served
// under.
type MediaConfig struct {
	Path         string `yaml:"path"`
	PublicPrefix string `yaml:"public_prefix"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	if c.PublicPrefix == "" {
		c.PublicPrefix = "/uploads"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.PublicPrefix, validation.Match(prefixRe).Error("must start with / and not end with /")),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how callers are identified:
//   - "disabled" (default): every request acts as a local admin, suitable for local dev.
//   - "token": a static Bearer token grants admin; Token must be non-empty.
//   - "session": users sign in and receive a JWT signed with JWTSecret that
//     lives for SessionTTL.
type AuthConfig struct {
	Mode       string        `yaml:"mode"`
	Token      string        `yaml:"token"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken, AuthModeSession)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case AuthModeToken:
		if c.Token == "" {
			return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
		}
	case AuthModeSession:
		if len(c.JWTSecret) < MinJWTSecretLength {
			return fmt.Errorf("auth: mode is %q but jwt_secret is shorter than %d characters", AuthModeSession, MinJWTSecretLength)
		}
		if c.SessionTTL <= 0 {
			return fmt.Errorf("auth: mode is %q but session_ttl is not positive", AuthModeSession)
		}
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken || c.Mode == AuthModeSession
}

// RedisConfig enables the page content read cache when URL is set.
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	if c.URL == "" {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Match(redisURLRe).Error("must be a redis://, rediss:// or unix:// URL")),
		validation.Field(&c.TTL, validation.Min(time.Second)),
	)
}

// Enabled reports whether a Redis URL is configured.
func (c *RedisConfig) Enabled() bool {
	return c.URL != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./taproom.db",
		},
		Media: MediaConfig{
			Path:         "./uploads",
			PublicPrefix: "/uploads",
		},
		Auth: AuthConfig{
			Mode:       AuthModeDisabled,
			SessionTTL: 24 * time.Hour,
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
	}
}
