package config

// EnvPrefix is the envconfig prefix; every field below sets its full name explicitly.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCommerceBaseURL = "STOREFRONT_COMMERCE_BASE_URL"

	EnvCandidateQuantities = "STOREFRONT_PRICING_CANDIDATE_QUANTITIES"
	EnvCatalogCacheTTL     = "STOREFRONT_PRICING_CATALOG_CACHE_TTL"

	EnvStorageBackend = "STOREFRONT_STORAGE_BACKEND"
	EnvSQLitePath     = "STOREFRONT_SQLITE_PATH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
