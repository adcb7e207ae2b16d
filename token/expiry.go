package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Expiry reads the exp claim of a JWT access token without verifying its
// signature. The client has no key to verify with; the value is only used to
// annotate oauth2.Token.Expiry. Opaque tokens return the zero time.
func Expiry(rawToken string) time.Time {
	if strings.Count(rawToken, ".") != 2 {
		return time.Time{}
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
