package config

const EnvPrefix = "ELECTROGEST"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv       = "ELECTROGEST_APP_ENV"
	EnvPort         = "ELECTROGEST_APP_PORT"
	EnvLogLevel     = "ELECTROGEST_LOG_LEVEL"
	EnvDBDriver     = "ELECTROGEST_DB_DRIVER"
	EnvDBPath       = "ELECTROGEST_DB_PATH"
	EnvDBDSN        = "ELECTROGEST_DB_DSN"
	EnvJWTSecret    = "ELECTROGEST_JWT_SECRET"
	EnvJWTIssuer    = "ELECTROGEST_JWT_ISSUER"
	EnvJWTExpMins   = "ELECTROGEST_JWT_EXPIRATION_MINUTES"
	EnvCacheBackend = "ELECTROGEST_CACHE_BACKEND"
	EnvRedisURL     = "ELECTROGEST_REDIS_URL"
	EnvBackupDir    = "ELECTROGEST_BACKUP_DIR"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)
