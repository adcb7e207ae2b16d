// Package client is the portal's data access layer. It maps list, get,
// create, update and delete onto the backend's REST collections and attaches
// the session's bearer token to every call.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/bluewater-portal/internal/transport"
	"github.com/jrsteele09/bluewater-portal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Authenticator supplies bearer tokens and recovers from 401 responses.
// *session.Manager implements it.
type Authenticator interface {
	oauth2.TokenSource
	OnRequestError(ctx context.Context, err error) session.ErrorResult
}

var _ Authenticator = (*session.Manager)(nil)

// Record is an untyped resource as returned by the backend.
type Record map[string]any

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger

	transport http.RoundTripper
	timeout   time.Duration
}

type Option func(*Client)

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport sets the base transport the pipeline sends through.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout bounds each call, including a refresh-and-retry. Zero leaves
// it to the transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for the backend at baseURL. A nil auth sends every
// request anonymously.
func New(baseURL string, auth Authenticator, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[client.New] invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	stages := []transport.Middleware{transport.RequestID()}
	if auth != nil {
		stages = append(stages, authStage(auth))
	}
	stages = append(stages, transport.Logging(c.logger))

	c.httpClient = &http.Client{
		Timeout:   c.timeout,
		Transport: transport.Chain(c.transport, stages...),
	}
	return c, nil
}
