package session

import "errors"

var (
	// ErrInvalidSession is returned for refresh rotation on an absent, revoked,
	// or expired token. The three causes are deliberately indistinguishable so
	// callers cannot probe which precondition failed.
	ErrInvalidSession = errors.New("invalid session")

	// ErrInvalidToken is returned when an access token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound is returned when the session's user vanished mid-session.
	// The token record itself is left to passive expiry.
	ErrUserNotFound = errors.New("user not found")

	// ErrConfig is returned for invalid session configuration.
	ErrConfig = errors.New("invalid session config")
)
