package config

import "time"

type FakeBackendConfig interface {
	GetFakeBackendAddr() string
	GetFakeJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type FakeBackend struct {
	Addr               string        `env:"FAKE_BACKEND_ADDR" envDefault:":8081"`
	JWTSecret          string        `env:"FAKE_JWT_SECRET" envDefault:"bluewater-dev-secret"`
	AccessTokenExpiry  time.Duration `env:"FAKE_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"FAKE_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
}

var _ FakeBackendConfig = FakeBackend{}

func (f FakeBackend) GetFakeBackendAddr() string {
	return f.Addr
}

func (f FakeBackend) GetFakeJWTSecret() string {
	return f.JWTSecret
}

func (f FakeBackend) GetAccessTokenExpiry() time.Duration {
	return f.AccessTokenExpiry
}

func (f FakeBackend) GetRefreshTokenExpiry() time.Duration {
	return f.RefreshTokenExpiry
}
