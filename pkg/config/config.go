package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Issuance     IssuanceConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PPEKEEPER_APP_ENV" required:"true"`
	Port         string `envconfig:"PPEKEEPER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PPEKEEPER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PPEKEEPER_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"PPEKEEPER_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"PPEKEEPER_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PPEKEEPER_DB_DSN"`
	Driver string `envconfig:"PPEKEEPER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PPEKEEPER_DB_HOST"`
	LegacyPort     int    `envconfig:"PPEKEEPER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PPEKEEPER_DB_USER"`
	LegacyPassword string `envconfig:"PPEKEEPER_DB_PASSWORD"`
	LegacyName     string `envconfig:"PPEKEEPER_DB_NAME"`
	LegacySSLMode  string `envconfig:"PPEKEEPER_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PPEKEEPER_SQLITE_PATH" default:"ppekeeper.db"`

	MaxOpenConns    int           `envconfig:"PPEKEEPER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PPEKEEPER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PPEKEEPER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PPEKEEPER_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PPEKEEPER_DB_SLOW_QUERY" default:"200ms"`
}

// UsesSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PPEKEEPER_REDIS_URL"`
	Address      string        `envconfig:"PPEKEEPER_REDIS_ADDR"`
	Password     string        `envconfig:"PPEKEEPER_REDIS_PASSWORD"`
	DB           int           `envconfig:"PPEKEEPER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PPEKEEPER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PPEKEEPER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PPEKEEPER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PPEKEEPER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PPEKEEPER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PPEKEEPER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PPEKEEPER_AUTO_MIGRATE" default:"false"`
}

type IssuanceConfig struct {
	// SessionTTL bounds how long a pending replacement selection is kept.
	SessionTTL time.Duration `envconfig:"PPEKEEPER_ISSUANCE_SESSION_TTL" default:"30m"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"PPEKEEPER_CRON_INTERVAL" default:"24h"`
	LockTTL    time.Duration `envconfig:"PPEKEEPER_CRON_LOCK_TTL" default:"25h"`
	JobTimeout time.Duration `envconfig:"PPEKEEPER_CRON_JOB_TIMEOUT" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.UsesSQLite() {
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
