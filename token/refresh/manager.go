package refresh

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/bluewater-portal/internal/config"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and revocation
type Manager struct {
	repo   Repo
	config config.FakeBackendConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.FakeBackendConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a new refresh token for the user, replacing any previous one
func (m *Manager) Create(userID int) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenStr := uuid.New().String()
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored token if it exists and has not expired
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, fmt.Errorf("[Manager.Validate] %w", err)
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, fmt.Errorf("[Manager.Validate] refresh token expired")
	}
	return rt, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// RevokeAll removes every refresh token
func (m *Manager) RevokeAll() error {
	return m.repo.DeleteAll()
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
