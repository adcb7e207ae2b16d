package session

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/token"
	"github.com/jrsteele09/bluewater-portal/users"
)

// CheckResult is the outcome of CheckAuthenticated. Logout is set when the
// manager has just cleared the session because it could not be recovered.
type CheckResult struct {
	Authenticated bool
	RedirectTo    Redirect
	Logout        bool
}

// CheckAuthenticated reports whether the caller is signed in. A session with
// only a refresh token is refreshed once. Otherwise the identity is resolved,
// recovering from a 401 with a single refresh.
func (m *Manager) CheckAuthenticated(ctx context.Context) CheckResult {
	access, refresh := m.tokens()
	if access == "" && refresh == "" {
		return CheckResult{RedirectTo: RedirectLogin}
	}

	if access == "" {
		if err := m.Refresh(ctx); err != nil {
			// A refresh the caller stopped waiting for keeps the session.
			return CheckResult{RedirectTo: RedirectLogin, Logout: !m.HasRefreshToken()}
		}
		return CheckResult{Authenticated: true}
	}

	_, err := m.lookupIdentity(ctx)
	if apierr.IsUnauthorized(err) {
		res := m.OnRequestError(ctx, err)
		if res.Retry {
			_, err = m.lookupIdentity(ctx)
		} else {
			err = res.Err
		}
	}

	switch {
	case err == nil:
		return CheckResult{Authenticated: true}
	case apierr.IsSessionExpired(err):
		return CheckResult{RedirectTo: RedirectLogin, Logout: true}
	case apierr.IsUnauthorized(err):
		// Rejected with nothing to refresh with.
		m.Logout(ctx)
		return CheckResult{RedirectTo: RedirectLogin, Logout: true}
	default:
		// Transient failures keep the stored tokens.
		m.logger.Warn().Err(err).Msg("could not confirm session")
		return CheckResult{RedirectTo: RedirectLogin}
	}
}

// Identity returns the signed-in user. It never fails: any error degrades to
// (nil, false).
func (m *Manager) Identity(ctx context.Context) (*users.Identity, bool) {
	id, err := m.lookupIdentity(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("identity unavailable")
		return nil, false
	}
	return id, true
}

// Permissions is derived from the identity: {"admin"} or empty. The second
// result is false when there is no identity.
func (m *Manager) Permissions(ctx context.Context) (users.Permissions, bool) {
	id, ok := m.Identity(ctx)
	if !ok {
		return nil, false
	}
	return users.PermissionsFor(id), true
}

// lookupIdentity tries the cache, then storage, then GET /profiles/me.
func (m *Manager) lookupIdentity(ctx context.Context) (*users.Identity, error) {
	m.mu.RLock()
	access, cached := m.accessToken, m.identity
	m.mu.RUnlock()

	if access == "" {
		return nil, errors.ErrNoAccessToken
	}
	if cached != nil {
		return cached, nil
	}

	if raw, err := m.store.Load(ctx, token.IdentityKey); err == nil {
		id := &users.Identity{}
		if json.Unmarshal([]byte(raw), id) == nil && id.ID > 0 {
			m.cacheIdentity(ctx, access, id, false)
			return id, nil
		}
	}

	profile, err := m.api.me(ctx, access)
	if err != nil {
		return nil, errors.Wrapf(err, "[Manager.lookupIdentity]")
	}
	id := users.NewIdentity(*profile)
	m.cacheIdentity(ctx, access, id, true)
	return id, nil
}
