package session

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/internal/errors"
)

const refreshKey = "refresh"

// ErrorResult is the outcome of offering a failed request to OnRequestError.
// Retry means the credentials were renewed and the request should be sent
// again once. Otherwise Err is the error to surface.
type ErrorResult struct {
	Err        error
	Retry      bool
	Logout     bool
	RedirectTo Redirect
}

// OnRequestError recovers from a 401. When a refresh token is held the access
// token is refreshed, unless the failed request carried a token that has
// already been replaced. A failed refresh clears the session and returns an
// *apierr.SessionExpiredError. Any other error is passed through unchanged,
// as is the refresh error when the caller's context ends first.
func (m *Manager) OnRequestError(ctx context.Context, err error) ErrorResult {
	var httpErr *apierr.HTTPError
	if !errors.As(err, &httpErr) || !httpErr.Unauthorized() {
		return ErrorResult{Err: err}
	}
	if !m.HasRefreshToken() {
		return ErrorResult{Err: err}
	}

	refreshErr := m.refresh(ctx, bearerToken(httpErr.Request))
	switch {
	case refreshErr == nil:
		return ErrorResult{Retry: true}
	case errors.Is(refreshErr, errors.ErrRefreshWait):
		return ErrorResult{Err: refreshErr}
	default:
		return ErrorResult{
			Err:        &apierr.SessionExpiredError{Logout: true, RedirectTo: string(RedirectLogin), Err: refreshErr},
			Logout:     true,
			RedirectTo: RedirectLogin,
		}
	}
}

// Refresh exchanges the refresh token for a new access token. If the backend
// rejects it, or cannot be reached, the session is cleared.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.refresh(ctx, "")
}

// refresh joins the in-flight refresh of the current generation or starts
// one. sent is the access token the failed request carried; if it is no
// longer current another caller has already refreshed and nothing is sent.
func (m *Manager) refresh(ctx context.Context, sent string) error {
	_, _, gen := m.snapshot()
	key := refreshKey + "-" + strconv.FormatUint(gen, 10)

	ch := m.refreshGroup.DoChan(key, func() (interface{}, error) {
		return nil, m.doRefresh(ctx, gen, sent)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		// The refresh carries on for the other callers.
		return fmt.Errorf("[Manager.Refresh] %w: %w", errors.ErrRefreshWait, ctx.Err())
	}
}

func (m *Manager) doRefresh(ctx context.Context, gen uint64, sent string) error {
	persistCtx := context.WithoutCancel(ctx)
	callCtx, cancel := m.refreshContext(ctx)
	defer cancel()

	access, refresh, current := m.snapshot()
	if current != gen {
		return m.superseded()
	}
	if sent != "" && access != "" && access != sent {
		return nil
	}
	if refresh == "" {
		return errors.ErrNoRefreshToken
	}

	resp, err := m.api.refresh(callCtx, refresh)
	if err != nil {
		if !m.clearIf(persistCtx, gen) {
			m.logger.Debug().Err(err).Msg("dropping failed refresh for a replaced session")
			return m.superseded()
		}
		m.logger.Warn().Err(err).Msg("token refresh failed, ending session")
		return errors.Wrapf(err, "[Manager.Refresh]")
	}

	if !m.applyRefresh(persistCtx, gen, resp.AccessToken, resp.RefreshToken) {
		m.logger.Debug().Msg("dropping refreshed token for a replaced session")
		return m.superseded()
	}
	m.logger.Info().Msg("access token refreshed")
	return nil
}

// refreshContext detaches the shared call from the first caller's
// cancellation. Its deadline still applies, or refreshTimeout without one.
func (m *Manager) refreshContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithTimeout(detached, m.refreshTimeout)
}

// superseded is the outcome of a refresh whose session was replaced while it
// ran. A newer login can be retried with, a logout cannot.
func (m *Manager) superseded() error {
	if access, _ := m.tokens(); access != "" {
		return nil
	}
	return errors.ErrSessionEnded
}

func bearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return raw
}
