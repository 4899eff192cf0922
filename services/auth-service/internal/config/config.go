package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// AuthServiceConfig holds the environment-sourced configuration for the
// auth service. Signing secrets have no defaults; a missing secret is a
// startup failure, never a silently unsigned token.
type AuthServiceConfig struct {
	ServiceName   string `env:"SERVICE_NAME" envDefault:"auth-service"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string `env:"GRPC_ADDR" envDefault:":9090"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"devtinder"`

	// ConsulAddr is optional; when empty the service skips registration.
	ConsulAddr string `env:"CONSUL_ADDR"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	Token   TokenConfig
	Lockout LockoutConfig
	Session SessionConfig
}

// TokenConfig configures token signing and lifetimes.
type TokenConfig struct {
	AccessTokenSecret     string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret    string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"15m"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"720h"`
	CookieMaxAge          time.Duration `env:"AUTH_COOKIE_MAX_AGE" envDefault:"720h"`
	Issuer                string        `env:"TOKEN_ISSUER" envDefault:"devtinder"`
}

// LockoutConfig configures the progressive login lockout policy.
type LockoutConfig struct {
	MaxFailedAttempts int           `env:"MAX_FAILED_LOGIN_ATTEMPTS" envDefault:"5"`
	Duration          time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`
}

// SessionConfig configures session expiry and the background reaper.
type SessionConfig struct {
	InactivityWindow time.Duration `env:"SESSION_INACTIVITY_WINDOW" envDefault:"168h"`
	ReaperInterval   time.Duration `env:"SESSION_REAPER_INTERVAL" envDefault:"6h"`
}

// Load parses the configuration from environment variables and validates it.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks that every required setting is present and sane.
func (c *AuthServiceConfig) validate() error {
	if c.Token.AccessTokenSecret == "" {
		return fmt.Errorf("missing ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.RefreshTokenSecret == "" {
		return fmt.Errorf("missing REFRESH_TOKEN_SECRET environment variable")
	}
	if c.Lockout.MaxFailedAttempts <= 0 {
		return fmt.Errorf("MAX_FAILED_LOGIN_ATTEMPTS must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive")
	}
	if c.Session.InactivityWindow <= 0 {
		return fmt.Errorf("SESSION_INACTIVITY_WINDOW must be positive")
	}
	if c.Session.ReaperInterval <= 0 {
		return fmt.Errorf("SESSION_REAPER_INTERVAL must be positive")
	}

	return nil
}
