package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIURL() string
	GetHTTPTimeout() time.Duration
}

type API struct {
	URL string `env:"BHR_API_URL" envDefault:"https://bluewater-portal.fly.dev"`
	// Zero leaves the transport default in place.
	HTTPTimeout time.Duration `env:"BHR_HTTP_TIMEOUT" envDefault:"0s"`
}

var _ APIConfig = API{}

func (a API) GetAPIURL() string {
	return strings.TrimRight(a.URL, "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.HTTPTimeout
}
