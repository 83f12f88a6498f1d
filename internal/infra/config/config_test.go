package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Success(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "3h")
	t.Setenv("JWT_ISSUER", "auth-svc")
	t.Setenv("JWT_AUDIENCE", "api")
	t.Setenv("HTTP_ADDRESS", ":8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("AccessTokenTTL want 2m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 3*time.Hour {
		t.Fatalf("RefreshTokenTTL want 3h, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.HTTPAddress != ":8081" {
		t.Fatalf("HTTPAddress want :8081, got %q", cfg.HTTPAddress)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreBackend != StoreBackendPostgres {
		t.Fatalf("default backend want postgres, got %q", cfg.StoreBackend)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("default access TTL want 1h, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 168*time.Hour {
		t.Fatalf("default refresh TTL want 168h, got %v", cfg.RefreshTokenTTL)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "db")
	t.Setenv("JWT_ACCESS_SECRET", "only-one")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing JWT_REFRESH_SECRET, got nil")
	}
}

func TestLoad_SecretsMustDiffer(t *testing.T) {
	t.Setenv("DATABASE_URL", "db")
	t.Setenv("JWT_ACCESS_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for identical secrets, got nil")
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing REDIS_ADDRESS, got nil")
	}
}
