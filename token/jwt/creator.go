package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/bluewater-portal/internal/config"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const issuer = "bluewater-portal"

// Claims are the access token claims issued by the fake backend.
type Claims struct {
	jwtlib.RegisteredClaims
	Admin bool `json:"admin"`
	// Generation is compared against the issuer's current generation so
	// every outstanding token can be invalidated at once.
	Generation int `json:"gen"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}

// Creator handles HS256 access token creation and verification
type Creator struct {
	secret []byte
	config config.FakeBackendConfig
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.FakeBackendConfig) (*Creator, error) {
	if cfg.GetFakeJWTSecret() == "" {
		return nil, errors.New("[jwt.NewCreator] secret is required")
	}
	return &Creator{
		secret: []byte(cfg.GetFakeJWTSecret()),
		config: cfg,
	}, nil
}

// CreateAccessToken creates an access token for the user
func (c *Creator) CreateAccessToken(userID int, admin bool, generation int) (string, error) {
	now := NowTimeFunc()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.config.GetAccessTokenExpiry())),
			ID:        uuid.New().String(),
		},
		Admin:      admin,
		Generation: generation,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("[Creator.CreateAccessToken] %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of an access token
func (c *Creator) Verify(rawToken string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(rawToken, claims, func(t *jwtlib.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("[Creator.Verify] %w", err)
	}
	return claims, nil
}
