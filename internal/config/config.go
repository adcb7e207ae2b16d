package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	FakeBackendConfig
}

type mainConfig struct {
	EnvVars
	API
	Store
	FakeBackend
}

// New reads the configuration from the process environment.
func New() (Config, error) {
	return Parse(env.Options{})
}

// Parse reads the configuration using the given options, tests pass an
// Environment map instead of touching the process environment.
func Parse(opts env.Options) (Config, error) {
	c := &mainConfig{}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return nil, fmt.Errorf("[config.Parse] %w", err)
	}
	if err := c.Store.validate(); err != nil {
		return nil, fmt.Errorf("[config.Parse] %w", err)
	}
	return c, nil
}
