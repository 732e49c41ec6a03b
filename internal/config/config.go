package config

type Config interface {
	EnvConfig
	LiveConfig
	CookieConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Live
	Cookie
}

func New() Config {
	return mainConfig{}
}
