// Package config loads service configuration from environment variables
// using github.com/caarlos0/env. A local .env file is honored in
// development via godotenv.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	// Env selects runtime behavior; cookies are only marked Secure
	// outside development.
	Env string `env:"APP_ENV" envDefault:"development"`

	// DatabaseURL is the PostgreSQL DSN. When empty the server runs on
	// the in-memory store (development only).
	DatabaseURL string `env:"DATABASE_URL"`

	// RunMigrationsOnStart applies pending migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	JWT    JWTConfig
	Cookie CookieConfig
	HTTP   HTTPConfig
}

// JWTConfig holds the token service settings. Access and refresh tokens
// are signed with independent secrets so neither key can forge the other
// token kind.
type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL"  envDefault:"15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	Issuer        string        `env:"JWT_ISSUER"      envDefault:"shopql"`
}

// CookieConfig controls the refresh-token cookie.
type CookieConfig struct {
	Name   string `env:"REFRESH_COOKIE_NAME"   envDefault:"refreshToken"`
	Secure bool   `env:"REFRESH_COOKIE_SECURE" envDefault:"false"`
}

// HTTPConfig holds server and middleware settings.
type HTTPConfig struct {
	Port            int           `env:"PORT"              envDefault:"4000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"  envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"  envDefault:"60s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerSec int           `env:"HTTP_RATE_LIMIT_PER_SEC" envDefault:"50"`
	RateLimitBurst  int           `env:"HTTP_RATE_LIMIT_BURST"   envDefault:"100"`
	AllowedOrigin   string        `env:"HTTP_ALLOWED_ORIGIN"     envDefault:"http://localhost:5173"`
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Load reads configuration from the environment, consulting a .env file
// when present, and validates it.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces invariants that cannot be expressed as tag defaults.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWT.AccessSecret) == "" {
		return errors.New("config: JWT_ACCESS_SECRET is required")
	}
	if strings.TrimSpace(c.JWT.RefreshSecret) == "" {
		return errors.New("config: JWT_REFRESH_SECRET is required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.HTTP.Port)
	}
	if !c.IsDev() && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required outside development")
	}
	return nil
}
