package config

import (
	"os"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Storage.Backend != enums.StorageBackendMemory {
		t.Fatalf("expected memory storage by default, got %q", cfg.Storage.Backend)
	}
	if got := cfg.Pricing.CandidateQuantities; len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Fatalf("unexpected candidate quantities %v", got)
	}
	if cfg.Pricing.CatalogCacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m catalog ttl, got %v", cfg.Pricing.CatalogCacheTTL)
	}
	if cfg.Commerce.MaxRetries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.Commerce.MaxRetries)
	}
	if len(cfg.App.CORSOrigins) != 1 || cfg.App.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.RateLimit.PerUser != 0 {
		t.Fatalf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected postgres backend without DSN to fail")
	}

	t.Setenv(EnvDBHost, "localhost")
	t.Setenv(EnvDBUser, "storefront")
	t.Setenv(EnvDBName, "storefront")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.DSN != "postgres://storefront@localhost:5432/storefront?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", cfg.DB.DSN)
	}
}

func TestLoad_RedisBackendRequiresRedis(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, "REDIS")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without redis url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != enums.StorageBackendRedis {
		t.Fatalf("expected normalized redis backend, got %q", cfg.Storage.Backend)
	}
}

func TestLoad_RejectsBadCandidates(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCandidateQuantities, "2,0")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-positive candidate quantity to fail")
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, "indexeddb")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage backend to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvJWTIssuer, "storefront-auth")
	t.Setenv(EnvCommerceBaseURL, "http://commerce.local/api")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
