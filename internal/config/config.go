// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// It is built once at startup and passed by reference into the token
// provider, cookie manager, and server; nothing reads env vars later.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty until DB is wired.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret. Required; never logged.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "user-session-api").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTExpiry is the credential lifetime (e.g. "1h").
	JWTExpiry string `mapstructure:"JWT_EXPIRY"`
	// CookieSecure sets the Secure flag on the jwt cookie; enable behind TLS.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// CookieMaxAge is the jwt cookie lifetime (e.g. "24h").
	CookieMaxAge string `mapstructure:"COOKIE_MAX_AGE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "user-session-api")
	v.SetDefault("JWT_EXPIRY", "1h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_MAX_AGE", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}

	if !cfg.CookieSecure && cfg.Env == "production" {
		return nil, errors.New("config: COOKIE_SECURE must be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// Expiry parses JWTExpiry as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) Expiry() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiry)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// CookieTTL parses CookieMaxAge as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) CookieTTL() time.Duration {
	d, err := time.ParseDuration(c.CookieMaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
