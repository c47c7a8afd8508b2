package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/storefront/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Commerce     CommerceConfig
	Pricing      PricingConfig
	Storage      StorageConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == enums.StorageBackendPostgres {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Backend == enums.StorageBackendRedis && !cfg.Redis.Enabled() {
		return nil, fmt.Errorf("%s or %s is required for the redis storage backend", EnvRedisURL, EnvRedisAddr)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig verifies access tokens minted by the external auth service.
type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER"`
}

// CommerceConfig points at the remote product/order/coupon backend.
type CommerceConfig struct {
	BaseURL          string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL" required:"true"`
	Timeout          time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"10s"`
	RequestsPerSec   float64       `envconfig:"STOREFRONT_COMMERCE_RPS" default:"20"`
	Burst            int           `envconfig:"STOREFRONT_COMMERCE_BURST" default:"10"`
	MaxRetries       int           `envconfig:"STOREFRONT_COMMERCE_MAX_RETRIES" default:"2"`
	InitialBackoff   time.Duration `envconfig:"STOREFRONT_COMMERCE_INITIAL_BACKOFF" default:"200ms"`
	MaxBackoff       time.Duration `envconfig:"STOREFRONT_COMMERCE_MAX_BACKOFF" default:"2s"`
	ForwardAuthToken bool          `envconfig:"STOREFRONT_COMMERCE_FORWARD_AUTH" default:"true"`
}

type PricingConfig struct {
	CandidateQuantities  []int         `envconfig:"STOREFRONT_PRICING_CANDIDATE_QUANTITIES" default:"2,3,4"`
	CatalogCacheTTL      time.Duration `envconfig:"STOREFRONT_PRICING_CATALOG_CACHE_TTL" default:"5m"`
	ReconcileConcurrency int           `envconfig:"STOREFRONT_PRICING_RECONCILE_CONCURRENCY" default:"4"`
}

func (p PricingConfig) validate() error {
	if len(p.CandidateQuantities) == 0 {
		return fmt.Errorf("%s must list at least one quantity", EnvCandidateQuantities)
	}
	for _, qty := range p.CandidateQuantities {
		if qty < 1 {
			return fmt.Errorf("%s values must be positive, got %d", EnvCandidateQuantities, qty)
		}
	}
	if p.CatalogCacheTTL < 0 {
		return fmt.Errorf("%s cannot be negative", EnvCatalogCacheTTL)
	}
	return nil
}

type StorageConfig struct {
	Backend    enums.StorageBackend `envconfig:"STOREFRONT_STORAGE_BACKEND" default:"memory"`
	SQLitePath string               `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`
}

func (s *StorageConfig) validate() error {
	backend, err := enums.ParseStorageBackend(string(s.Backend))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvStorageBackend, err)
	}
	s.Backend = backend
	if backend == enums.StorageBackendSQLite && strings.TrimSpace(s.SQLitePath) == "" {
		return fmt.Errorf("%s is required for the sqlite storage backend", EnvSQLitePath)
	}
	return nil
}

// RateLimitConfig throttles authenticated API calls per user with a fixed window in Redis.
// A zero limit disables throttling.
type RateLimitConfig struct {
	Window  time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	PerUser int           `envconfig:"STOREFRONT_RATE_LIMIT_PER_USER" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
