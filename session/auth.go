package session

import (
	"context"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/internal/utils"
)

// Login exchanges credentials for a token pair. Any previous session is
// cleared first, so a failed login leaves the manager unauthenticated.
// Failures are returned as *apierr.AuthError.
func (m *Manager) Login(ctx context.Context, email, password string) (Redirect, error) {
	m.clear(ctx)

	req := apimodel.LoginRequest{Email: email, Password: password}
	if err := apimodel.Validate(req); err != nil {
		return "", &apierr.AuthError{Message: apierr.DefaultLoginMessage, Err: err}
	}

	resp, err := m.api.login(ctx, req)
	if err != nil {
		m.logger.Info().Str("email", utils.RedactEmail(email)).Err(err).Msg("login rejected")
		return "", &apierr.AuthError{Message: apierr.UserMessage(err, apierr.DefaultLoginMessage), Err: err}
	}
	m.setTokens(ctx, resp.AccessToken, resp.RefreshToken)

	// The tokens are valid even if the profile lookup fails, Identity retries it.
	if _, err := m.lookupIdentity(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("profile lookup after login failed")
	}

	m.logger.Info().Str("email", utils.RedactEmail(email)).Msg("logged in")
	return RedirectHome, nil
}

// Logout clears the session from memory and storage. It always succeeds.
func (m *Manager) Logout(ctx context.Context) Redirect {
	m.clear(ctx)
	m.logger.Info().Msg("logged out")
	return RedirectLogin
}

// Register creates an account without signing the caller in. Failures are
// returned as *apierr.RegisterError.
func (m *Manager) Register(ctx context.Context, req apimodel.RegisterRequest) (Redirect, error) {
	req = req.WithDefaults()
	if err := apimodel.Validate(req); err != nil {
		return "", &apierr.RegisterError{Message: apierr.DefaultRegisterMessage, Err: err}
	}

	if err := m.api.register(ctx, req); err != nil {
		return "", &apierr.RegisterError{Message: apierr.UserMessage(err, apierr.DefaultRegisterMessage), Err: err}
	}

	m.logger.Info().Str("email", utils.RedactEmail(req.Email)).Msg("account registered")
	return RedirectLogin, nil
}
