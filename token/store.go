package token

import "context"

// Keys under which a session is persisted. They match the browser portal's
// local storage names so a session file is readable by either.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	IdentityKey     = "identity"
)

// SessionKeys lists every key a session writes. Logout deletes all of them.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey, IdentityKey}

// Store persists session credentials between process runs.
// Load returns errors.ErrNotFound for a missing key.
type Store interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
