package auth

import "errors"

var (
	// ErrNotAuthenticated means there is no session, neither in memory nor persisted.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the refresh token was rejected and the user has to log in again.
	ErrSessionExpired = errors.New("session expired")
)
