package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is a permission granted to an identity.
type RoleType string

const (
	// RoleAdmin is granted to profiles flagged is_admin. Admins see every
	// family, booking and profile and may toggle other users' admin flag.
	RoleAdmin RoleType = "admin"
)

// Profile is the backend's profile record, as returned by GET /profiles/me
// and the profiles collection.
type Profile struct {
	ID        int    `json:"id" validate:"gt=0"`
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdult   bool   `json:"is_adult"`
	IsAdmin   bool   `json:"is_admin"`
}

// FullName joins first and last name the way the portal displays it.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Identity is the authenticated user as the client understands it. It is
// built once per session from the caller's profile and cached.
type Identity struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	IsAdult bool   `json:"is_adult"`
}

// NewIdentity derives an Identity from a profile.
func NewIdentity(p Profile) *Identity {
	return &Identity{
		ID:      p.ID,
		Name:    p.FirstName + " " + p.LastName,
		Email:   p.Email,
		IsAdmin: p.IsAdmin,
		IsAdult: p.IsAdult,
	}
}

// Permissions is the set of roles granted to an identity.
type Permissions []RoleType

// PermissionsFor is {"admin"} for admins and empty otherwise. It is never nil
// so callers can tell "no permissions" from "not authenticated".
func PermissionsFor(id *Identity) Permissions {
	if id != nil && id.IsAdmin {
		return Permissions{RoleAdmin}
	}
	return Permissions{}
}

// Has reports whether role is in the set.
func (p Permissions) Has(role RoleType) bool {
	for _, r := range p {
		if r == role {
			return true
		}
	}
	return false
}

// User is a profile together with its credentials, as held by a backend.
type User struct {
	Profile
	PasswordHash string `json:"-"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
