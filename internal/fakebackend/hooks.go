package fakebackend

import (
	"fmt"

	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/internal/utils"
	"github.com/jrsteele09/bluewater-portal/users"
)

// SeedUser creates an account directly, bypassing /auth/register.
func (b *Backend) SeedUser(email, password, firstName, lastName string, admin bool) (users.Profile, error) {
	user, err := b.createUser(apimodel.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		IsAdult:   utils.Ptr(true),
		IsAdmin:   utils.Ptr(admin),
	})
	if err != nil {
		return users.Profile{}, fmt.Errorf("[Backend.SeedUser] %w", err)
	}
	return user.Profile, nil
}

// Seed inserts records into a collection. Records without an id are
// assigned the next one.
func (b *Backend) Seed(resource string, records ...Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		created, err := b.records.create(resource, rec)
		if err != nil {
			return nil, fmt.Errorf("[Backend.Seed] %w", err)
		}
		out = append(out, created)
	}
	return out, nil
}

// ExpireAccessTokens invalidates every access token issued so far.
func (b *Backend) ExpireAccessTokens() {
	b.generation.Add(1)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (b *Backend) RevokeRefreshTokens() error {
	return b.refresh.RevokeAll()
}

// RefreshCalls counts requests to /auth/refresh, successful or not.
func (b *Backend) RefreshCalls() int {
	return int(b.refreshCalls.Load())
}
