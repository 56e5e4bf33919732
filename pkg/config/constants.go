package config

const (
	// EnvPrefix is intentionally empty: every variable names its full key in
	// the envconfig tag.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "MAGIS_APP_ENV"
	EnvDBDSN  = "MAGIS_DB_DSN"
	EnvDBHost = "MAGIS_DB_HOST"
	EnvDBUser = "MAGIS_DB_USER"
	EnvDBName = "MAGIS_DB_NAME"
)

var partDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
