package config

import (
	"fmt"
	"path/filepath"
)

// StoreType selects where session credentials are persisted.
type StoreType string

const (
	StoreTypeFile   StoreType = "file"
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

type StoreConfig interface {
	GetStoreType() StoreType
	GetSessionFile(dataFolder string) string
	GetRedisURL() string
	GetRedisPrefix() string
}

type Store struct {
	Type        StoreType `env:"BHR_SESSION_STORE" envDefault:"file"`
	SessionFile string    `env:"BHR_SESSION_FILE"`
	RedisURL    string    `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string    `env:"REDIS_PREFIX" envDefault:"bhr:session:"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreType() StoreType {
	return s.Type
}

// GetSessionFile returns BHR_SESSION_FILE, or session.json inside the data folder.
func (s Store) GetSessionFile(dataFolder string) string {
	if s.SessionFile != "" {
		return s.SessionFile
	}
	return filepath.Join(dataFolder, "session.json")
}

func (s Store) GetRedisURL() string {
	return s.RedisURL
}

func (s Store) GetRedisPrefix() string {
	return s.RedisPrefix
}

func (s Store) validate() error {
	switch s.Type {
	case StoreTypeFile, StoreTypeMemory, StoreTypeRedis:
		return nil
	}
	return fmt.Errorf("unknown session store %q", s.Type)
}
