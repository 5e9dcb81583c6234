package config

const (
	EnvPrefix = "PPEKEEPER"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "PPEKEEPER_APP_ENV"
	EnvPort     = "PPEKEEPER_APP_PORT"
	EnvLogLevel = "PPEKEEPER_LOG_LEVEL"

	EnvDBDSN    = "PPEKEEPER_DB_DSN"
	EnvDBDriver = "PPEKEEPER_DB_DRIVER"
	EnvDBHost   = "PPEKEEPER_DB_HOST"
	EnvDBUser   = "PPEKEEPER_DB_USER"
	EnvDBName   = "PPEKEEPER_DB_NAME"
	EnvDBPass   = "PPEKEEPER_DB_PASSWORD"
	EnvDBPort   = "PPEKEEPER_DB_PORT"

	EnvRedisURL   = "PPEKEEPER_REDIS_URL"
	EnvUseSQLite  = "PPEKEEPER_USE_SQLITE"
	EnvSessionTTL = "PPEKEEPER_ISSUANCE_SESSION_TTL"
	EnvCronEvery  = "PPEKEEPER_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
