package errors

import (
	"errors"
	"fmt"
)

// Common error values shared by the session, storage and client packages
var (
	// Session errors
	ErrNoAccessToken  = errors.New("no access token")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrNoIdentity     = errors.New("no identity")
	ErrSessionEnded   = errors.New("session ended during refresh")
	ErrRefreshWait    = errors.New("stopped waiting for refresh")

	// Storage errors
	ErrNotFound = errors.New("not found")

	// Request errors
	ErrInvalidResource = errors.New("invalid resource name")
	ErrInvalidID       = errors.New("invalid record id")
	ErrBodyNotReplay   = errors.New("request body cannot be replayed")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
