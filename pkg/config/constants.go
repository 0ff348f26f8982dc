package config

const (
	EnvPrefix = "cartflow"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv        = "CARTFLOW_APP_ENV"
	EnvRemoteBaseURL = "CARTFLOW_REMOTE_BASE_URL"
)
