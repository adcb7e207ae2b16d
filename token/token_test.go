package token_test

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/token"
	tokenfakerepo "github.com/jrsteele09/bluewater-portal/token/repofake"
	"github.com/stretchr/testify/require"
)

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "5",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	require.True(t, exp.Equal(token.Expiry(raw)))
}

func TestExpiry_OpaqueTokens(t *testing.T) {
	require.True(t, token.Expiry("T1").IsZero())
	require.True(t, token.Expiry("").IsZero())
	require.True(t, token.Expiry("a.b.c").IsZero())

	noExp, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "5"}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.True(t, token.Expiry(noExp).IsZero())
}

func TestFakeStore(t *testing.T) {
	ctx := context.Background()
	s := tokenfakerepo.NewFakeStore()

	_, err := s.Load(ctx, token.IdentityKey)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	for _, k := range token.SessionKeys {
		require.NoError(t, s.Save(ctx, k, "v-"+k))
	}
	require.Equal(t, 3, s.Len())

	v, err := s.Load(ctx, token.IdentityKey)
	require.NoError(t, err)
	require.Equal(t, "v-identity", v)

	require.NoError(t, s.Delete(ctx, token.SessionKeys...))
	require.Equal(t, 0, s.Len())
}
