package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Lockout.MaxFailedAttempts != 5 {
		t.Fatalf("default max failed attempts = %d, want 5", cfg.Lockout.MaxFailedAttempts)
	}
	if cfg.Lockout.Duration != 15*time.Minute {
		t.Fatalf("default lockout duration = %s, want 15m", cfg.Lockout.Duration)
	}
	if cfg.Session.ReaperInterval != 6*time.Hour {
		t.Fatalf("default reaper interval = %s, want 6h", cfg.Session.ReaperInterval)
	}
	if cfg.Token.AccessTokenExpiresIn != 15*time.Minute {
		t.Fatalf("default access token ttl = %s, want 15m", cfg.Token.AccessTokenExpiresIn)
	}
}

func TestLoadMissingSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing access token secret")
	} else if !strings.Contains(err.Error(), "ACCESS_TOKEN_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing refresh token secret")
	} else if !strings.Contains(err.Error(), "REFRESH_TOKEN_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsNonPositiveLockout(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("MAX_FAILED_LOGIN_ATTEMPTS", "0")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for zero max failed attempts")
	}
}
