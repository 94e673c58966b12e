package config

const EnvPrefix = "CLINICA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CLINICA_APP_ENV"
	EnvPort     = "CLINICA_APP_PORT"
	EnvLogLevel = "CLINICA_LOG_LEVEL"

	EnvDBDSN    = "CLINICA_DB_DSN"
	EnvDBDriver = "CLINICA_DB_DRIVER"
	EnvDBHost   = "CLINICA_DB_HOST"
	EnvDBUser   = "CLINICA_DB_USER"
	EnvDBName   = "CLINICA_DB_NAME"

	EnvRedisURL = "CLINICA_REDIS_URL"

	EnvJWTSecret  = "CLINICA_JWT_SECRET"
	EnvJWTIssuer  = "CLINICA_JWT_ISSUER"
	EnvJWTExpMins = "CLINICA_JWT_EXPIRATION_MINUTES"

	EnvAccessPolicies = "CLINICA_ACCESS_POLICIES"
	EnvAutoMigrate    = "CLINICA_AUTO_MIGRATE"
	EnvTrustedProxies = "CLINICA_TRUSTED_PROXIES"

	EnvPlaceholderEmail = "CLINICA_USERS_PLACEHOLDER_EMAIL"
	EnvClinicName       = "CLINICA_CLINIC_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
