package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/users"
	"golang.org/x/oauth2"
)

const (
	loginPath    = "/auth/login"
	refreshPath  = "/auth/refresh"
	registerPath = "/auth/register"
	mePath       = "/profiles/me"
)

// authAPI calls the backend endpoints the session manager owns. They bypass
// the resource client's 401 recovery: a rejected refresh must not trigger
// another refresh.
type authAPI struct {
	baseURL    string
	httpClient *http.Client
}

func (a *authAPI) login(ctx context.Context, req apimodel.LoginRequest) (*apimodel.TokenResponse, error) {
	out := &apimodel.TokenResponse{}
	if err := a.do(ctx, http.MethodPost, loginPath, "", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *authAPI) refresh(ctx context.Context, refreshToken string) (*apimodel.RefreshResponse, error) {
	out := &apimodel.RefreshResponse{}
	if err := a.do(ctx, http.MethodPost, refreshPath, "", apimodel.RefreshRequest{RefreshToken: refreshToken}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *authAPI) register(ctx context.Context, req apimodel.RegisterRequest) error {
	return a.do(ctx, http.MethodPost, registerPath, "", req, nil)
}

func (a *authAPI) me(ctx context.Context, accessToken string) (*users.Profile, error) {
	out := &users.Profile{}
	if err := a.do(ctx, http.MethodGet, mePath, accessToken, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *authAPI) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[authAPI.do] encoding %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[authAPI.do] %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &apierr.NetworkError{Method: method, URL: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierr.NetworkError{Method: method, URL: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.NewHTTPError(resp, data)
	}
	if out == nil {
		return nil
	}
	if err := apimodel.Decode(data, out); err != nil {
		return &apierr.MalformedResponseError{Method: method, URL: path, Err: err}
	}
	return nil
}
