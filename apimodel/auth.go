// Package apimodel holds the request and response bodies of the backend's
// auth endpoints and the validation shared by every decoded schema.
package apimodel

import "github.com/jrsteele09/bluewater-portal/internal/utils"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	// AccessToken is sent as "Authorization: Bearer <access_token>" on every call.
	AccessToken string `json:"access_token" validate:"required"`

	// RefreshToken is exchanged at /auth/refresh for a new access token.
	RefreshToken string `json:"refresh_token" validate:"required"`

	// TokenType is "bearer" when present.
	TokenType string `json:"token_type,omitempty"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is returned by POST /auth/refresh. RefreshToken is only set
// when the backend rotates it.
type RefreshResponse struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RegisterRequest is the body of POST /auth/register. IsAdult defaults to true
// and IsAdmin to false when left nil.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	IsAdult   *bool  `json:"is_adult"`
	IsAdmin   *bool  `json:"is_admin"`
}

// WithDefaults returns a copy with the optional flags filled in.
func (r RegisterRequest) WithDefaults() RegisterRequest {
	if r.IsAdult == nil {
		r.IsAdult = utils.Ptr(true)
	}
	if r.IsAdmin == nil {
		r.IsAdmin = utils.Ptr(false)
	}
	return r
}

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
