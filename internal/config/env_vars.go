package config

import (
	"strings"

	"github.com/rs/zerolog"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() zerolog.Level
	GetDataFolder() string
}

type EnvVars struct {
	AppName    string `env:"APP_NAME" envDefault:"Bluewater Heritage Ranch"`
	Env        string `env:"ENV" envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	DataFolder string `env:"FOLDER" envDefault:"./data"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

// GetLogLevel falls back to info when LOG_LEVEL is not a zerolog level name.
func (e EnvVars) GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(e.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}
