package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	Password PasswordConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Backup   BackupConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ELECTROGEST_APP_ENV" required:"true"`
	Port         string `envconfig:"ELECTROGEST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ELECTROGEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ELECTROGEST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"ELECTROGEST_DB_DRIVER" default:"sqlite"`

	// sqlite
	Path          string        `envconfig:"ELECTROGEST_DB_PATH" default:"data/electrogest.db"`
	BusyTimeout   time.Duration `envconfig:"ELECTROGEST_DB_BUSY_TIMEOUT" default:"10s"`
	LockedRetries int           `envconfig:"ELECTROGEST_DB_LOCKED_RETRIES" default:"3"`

	// postgres
	DSN string `envconfig:"ELECTROGEST_DB_DSN"`

	MaxOpenConns    int           `envconfig:"ELECTROGEST_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ELECTROGEST_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ELECTROGEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ELECTROGEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"ELECTROGEST_AUTO_MIGRATE" default:"false"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

func (db *DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case DBDriverSQLite:
		if db.Path == "" {
			return fmt.Errorf("%s is required for the sqlite driver", EnvDBPath)
		}
	case DBDriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvDBDSN)
		}
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	return nil
}

type JWTConfig struct {
	Secret            string `envconfig:"ELECTROGEST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ELECTROGEST_JWT_ISSUER" default:"electrogest"`
	ExpirationMinutes int    `envconfig:"ELECTROGEST_JWT_EXPIRATION_MINUTES" default:"480"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ELECTROGEST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ELECTROGEST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ELECTROGEST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ELECTROGEST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ELECTROGEST_ARGON_KEY_LEN" default:"32"`
}

type CacheConfig struct {
	Backend      string        `envconfig:"ELECTROGEST_CACHE_BACKEND" default:"memory"`
	DashboardTTL time.Duration `envconfig:"ELECTROGEST_CACHE_DASHBOARD_TTL" default:"30s"`
	ReportTTL    time.Duration `envconfig:"ELECTROGEST_CACHE_REPORT_TTL" default:"5m"`
}

func (c CacheConfig) IsRedis() bool {
	return strings.EqualFold(c.Backend, CacheBackendRedis)
}

func (c *CacheConfig) validate(redis RedisConfig) error {
	switch strings.ToLower(c.Backend) {
	case CacheBackendMemory:
		return nil
	case CacheBackendRedis:
		if redis.URL == "" {
			return fmt.Errorf("%s is required for the redis cache backend", EnvRedisURL)
		}
		return nil
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"ELECTROGEST_REDIS_URL"`
	PoolSize     int           `envconfig:"ELECTROGEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ELECTROGEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ELECTROGEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ELECTROGEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ELECTROGEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type BackupConfig struct {
	Dir       string `envconfig:"ELECTROGEST_BACKUP_DIR" default:"backups"`
	Keep      int    `envconfig:"ELECTROGEST_BACKUP_KEEP" default:"10"`
	FilePerms uint32 `envconfig:"ELECTROGEST_BACKUP_FILE_PERMS" default:"384"`
}

type CronConfig struct {
	TickInterval      time.Duration `envconfig:"ELECTROGEST_CRON_TICK_INTERVAL" default:"1m"`
	BackupInterval    time.Duration `envconfig:"ELECTROGEST_CRON_BACKUP_INTERVAL" default:"24h"`
	PromotionInterval time.Duration `envconfig:"ELECTROGEST_CRON_PROMOTION_INTERVAL" default:"1h"`
	JobTimeout        time.Duration `envconfig:"ELECTROGEST_CRON_JOB_TIMEOUT" default:"5m"`
}
