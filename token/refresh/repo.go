package refresh

import (
	"time"
)

// StoredRefreshToken is the server-side record behind an opaque refresh token.
type StoredRefreshToken struct {
	Token  string    // The opaque token string sent to the client
	UserID int       // Profile the token was issued to
	Iat    time.Time // Issued at
}

// Repo stores refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID int) (*StoredRefreshToken, error)
	DeleteAll() error
}
