package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Shop     ShopConfig
	Snapshot SnapshotConfig
	Redis    RedisConfig
	DB       DBConfig
	JWT      JWTConfig
	Catalog  CatalogConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Snapshot.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VITRINA_APP_ENV" required:"true"`
	Port         string `envconfig:"VITRINA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VITRINA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VITRINA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ShopConfig points at the authoritative shop API the storefront syncs against.
type ShopConfig struct {
	BaseURL string        `envconfig:"VITRINA_SHOP_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"VITRINA_SHOP_TIMEOUT" default:"10s"`
}

// SnapshotConfig selects where cart and session snapshots are persisted.
type SnapshotConfig struct {
	Backend  string `envconfig:"VITRINA_SNAPSHOT_BACKEND" default:"redis"`
	FilePath string `envconfig:"VITRINA_SNAPSHOT_FILE_PATH" default:"vitrina-snapshots.json"`
}

const (
	SnapshotBackendRedis = "redis"
	SnapshotBackendFile  = "file"
)

func (s SnapshotConfig) validate() error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend != SnapshotBackendRedis && backend != SnapshotBackendFile {
		return fmt.Errorf("snapshot backend must be %q or %q", SnapshotBackendRedis, SnapshotBackendFile)
	}
	return nil
}

// NormalizedBackend returns the lowercase backend selector.
func (s SnapshotConfig) NormalizedBackend() string {
	return strings.ToLower(strings.TrimSpace(s.Backend))
}

type RedisConfig struct {
	URL          string        `envconfig:"VITRINA_REDIS_URL"`
	Address      string        `envconfig:"VITRINA_REDIS_ADDR"`
	Password     string        `envconfig:"VITRINA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITRINA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITRINA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITRINA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITRINA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITRINA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITRINA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"VITRINA_DB_DSN"`
	Driver string `envconfig:"VITRINA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VITRINA_DB_HOST"`
	LegacyPort     int    `envconfig:"VITRINA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VITRINA_DB_USER"`
	LegacyPassword string `envconfig:"VITRINA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VITRINA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VITRINA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VITRINA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VITRINA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VITRINA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VITRINA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// NormalizedDriver returns the lowercase driver selector.
func (db DBConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(db.Driver))
}

type JWTConfig struct {
	Secret            string `envconfig:"VITRINA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VITRINA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VITRINA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CatalogConfig toggles schema management for the local catalog fallback.
type CatalogConfig struct {
	AutoMigrate bool `envconfig:"VITRINA_CATALOG_AUTO_MIGRATE" default:"false"`
	SeedDemo    bool `envconfig:"VITRINA_CATALOG_SEED_DEMO" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.NormalizedDriver() == DBDriverSQLite {
		// sqlite callers point DSN at a file; default to an on-disk catalog
		db.DSN = "vitrina-catalog.db"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"VITRINA_DB_HOST": db.LegacyHost,
		"VITRINA_DB_USER": db.LegacyUser,
		"VITRINA_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"VITRINA_DB_HOST", "VITRINA_DB_USER", "VITRINA_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either VITRINA_DB_DSN or %s are required", strings.Join(missing, ", "))
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
