package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the
// prefix only matters for untagged fields.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat = "STOREFRONT_LOG_FORMAT"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBPort   = "STOREFRONT_DB_PORT"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvCORSOrigins = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
