// Package session owns the portal's credentials: the access token, the
// refresh token and the cached identity of the signed-in user.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/internal/transport"
	"github.com/jrsteele09/bluewater-portal/token"
	"github.com/jrsteele09/bluewater-portal/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Redirect is the portal route the caller should navigate to next.
type Redirect string

const (
	RedirectHome  Redirect = "/"
	RedirectLogin Redirect = "/login"
)

var _ oauth2.TokenSource = (*Manager)(nil)

// defaultRefreshTimeout bounds a refresh whose caller set no deadline.
const defaultRefreshTimeout = 30 * time.Second

// Manager is safe for concurrent use. Refreshes are serialised: callers that
// hit a 401 at the same time share a single /auth/refresh call.
//
// Login, refresh and logout are the session's writers. They hold writeMu
// while they change and persist credentials, and each one starts a new
// generation. A refresh only applies its result to the generation it
// started from.
type Manager struct {
	api    *authAPI
	store  token.Store
	logger zerolog.Logger

	transport      http.RoundTripper
	timeout        time.Duration
	refreshTimeout time.Duration

	writeMu sync.Mutex

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	identity     *users.Identity
	generation   uint64

	refreshGroup singleflight.Group
}

type ManagerOption func(*Manager)

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTransport sets the base transport for the auth endpoints.
func WithTransport(rt http.RoundTripper) ManagerOption {
	return func(m *Manager) {
		m.transport = rt
	}
}

// WithTimeout bounds each auth call. Zero leaves it to the transport.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = d
	}
}

// NewManager creates a session manager for the backend at baseURL. Persisted
// credentials are not read until Restore is called.
func NewManager(baseURL string, store token.Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("[session.NewManager] store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[session.NewManager] invalid base url %q", baseURL)
	}

	m := &Manager{
		store:  store,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(m)
	}

	m.refreshTimeout = defaultRefreshTimeout
	if m.timeout > 0 {
		m.refreshTimeout = m.timeout
	}

	m.api = &authAPI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   m.timeout,
			Transport: transport.Chain(m.transport, transport.RequestID(), transport.Logging(m.logger)),
		},
	}
	return m, nil
}

// Restore loads persisted tokens into memory. The identity is restored
// lazily by Identity.
func (m *Manager) Restore(ctx context.Context) error {
	access, err := m.load(ctx, token.AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, err := m.load(ctx, token.RefreshTokenKey)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.mu.Lock()
	m.accessToken = access
	m.refreshToken = refresh
	m.identity = nil
	m.generation++
	m.mu.Unlock()
	return nil
}

// Token returns the current access token. It implements oauth2.TokenSource
// and never contacts the backend.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.accessToken == "" {
		return nil, errors.ErrNoAccessToken
	}
	return &oauth2.Token{
		AccessToken:  m.accessToken,
		TokenType:    "Bearer",
		RefreshToken: m.refreshToken,
		Expiry:       token.Expiry(m.accessToken),
	}, nil
}

// HasRefreshToken reports whether a refresh can be attempted.
func (m *Manager) HasRefreshToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken != ""
}

func (m *Manager) tokens() (access, refresh string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken, m.refreshToken
}

// snapshot is tokens plus the generation they belong to.
func (m *Manager) snapshot() (access, refresh string, gen uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken, m.refreshToken, m.generation
}

func (m *Manager) load(ctx context.Context, key string) (string, error) {
	value, err := m.store.Load(ctx, key)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "[Manager.Restore] loading %s", key)
	}
	return value, nil
}

// setTokens installs a token pair from a login.
func (m *Manager) setTokens(ctx context.Context, access, refresh string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.install(ctx, access, refresh)
}

// applyRefresh installs refreshed tokens if the session is still generation
// gen. It reports false when a login or logout got there first.
func (m *Manager) applyRefresh(ctx context.Context, gen uint64, access, refresh string) bool {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if !m.isGeneration(gen) {
		return false
	}
	m.install(ctx, access, refresh)
	return true
}

// install replaces the in-memory tokens and persists them. An empty refresh
// token keeps the current one. The caller holds writeMu.
func (m *Manager) install(ctx context.Context, access, refresh string) {
	m.mu.Lock()
	m.accessToken = access
	if refresh != "" {
		m.refreshToken = refresh
	}
	m.generation++
	m.mu.Unlock()

	if err := m.store.Save(ctx, token.AccessTokenKey, access); err != nil {
		m.logger.Err(err).Msg("failed to persist access token")
	}
	if refresh == "" {
		return
	}
	if err := m.store.Save(ctx, token.RefreshTokenKey, refresh); err != nil {
		m.logger.Err(err).Msg("failed to persist refresh token")
	}
}

// cacheIdentity stores id unless the access token it was resolved with has
// since been replaced by a login or logout.
func (m *Manager) cacheIdentity(ctx context.Context, resolvedWith string, id *users.Identity, persist bool) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	current := m.accessToken == resolvedWith
	if current {
		m.identity = id
	}
	m.mu.Unlock()

	if !current || !persist {
		return
	}
	data, err := json.Marshal(id)
	if err != nil {
		m.logger.Err(err).Msg("failed to encode identity")
		return
	}
	if err := m.store.Save(ctx, token.IdentityKey, string(data)); err != nil {
		m.logger.Err(err).Msg("failed to persist identity")
	}
}

// clear drops every credential from memory and storage.
func (m *Manager) clear(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.wipe(ctx)
}

// clearIf clears the session only if it is still generation gen.
func (m *Manager) clearIf(ctx context.Context, gen uint64) bool {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if !m.isGeneration(gen) {
		return false
	}
	m.wipe(ctx)
	return true
}

func (m *Manager) isGeneration(gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation == gen
}

// wipe requires writeMu.
func (m *Manager) wipe(ctx context.Context) {
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.identity = nil
	m.generation++
	m.mu.Unlock()

	if err := m.store.Delete(ctx, token.SessionKeys...); err != nil {
		m.logger.Err(err).Msg("failed to delete persisted session")
	}
}
