package client

import (
	"io"
	"net/http"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/internal/transport"
	"github.com/jrsteele09/bluewater-portal/session"
)

// authState tracks a request through 401 recovery. A request is sent at
// most twice.
type authState int

const (
	stateIdle authState = iota
	stateRefreshing
	stateRetrying
)

// authStage attaches the bearer token and, on a 401, asks the authenticator
// to recover before retrying once.
func authStage(auth Authenticator) transport.Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return &authTransport{auth: auth, next: next}
	}
}

type authTransport struct {
	auth Authenticator
	next http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// A caller-supplied Authorization header wins and is not recovered.
	if req.Header.Get("Authorization") != "" {
		return t.next.RoundTrip(req)
	}

	state := stateIdle
	for {
		attempt, err := t.authorize(req, state)
		if err != nil {
			return nil, err
		}

		resp, err := t.next.RoundTrip(attempt)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized || state == stateRetrying {
			return resp, nil
		}

		state = stateRefreshing
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		res := t.auth.OnRequestError(req.Context(), apierr.NewHTTPError(resp, body))
		if !res.Retry {
			if errors.Is(res.Err, errors.ErrRefreshWait) {
				return nil, res.Err
			}
			return nil, sessionExpired(res)
		}
		state = stateRetrying
	}
}

// authorize clones req with the current token. Retries replay the body.
func (t *authTransport) authorize(req *http.Request, state authState) (*http.Request, error) {
	attempt := req.Clone(req.Context())
	if tok, err := t.auth.Token(); err == nil && tok.AccessToken != "" {
		tok.SetAuthHeader(attempt)
	}

	if state != stateRetrying || req.Body == nil || req.Body == http.NoBody {
		return attempt, nil
	}
	if req.GetBody == nil {
		return nil, errors.ErrBodyNotReplay
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrBodyNotReplay, "[authTransport.authorize] %v", err)
	}
	attempt.Body = body
	return attempt, nil
}

// sessionExpired is the error for an unrecoverable 401. A 401 passed through
// unchanged, because no refresh was possible, is wrapped as well.
func sessionExpired(res session.ErrorResult) error {
	var expired *apierr.SessionExpiredError
	if errors.As(res.Err, &expired) {
		return expired
	}
	return &apierr.SessionExpiredError{
		Logout:     res.Logout,
		RedirectTo: string(session.RedirectLogin),
		Err:        res.Err,
	}
}
