package session

import "errors"

var (
	ErrInvalidSession  = errors.New("session: invalid session")
	ErrSessionExpired  = errors.New("session: expired")
	ErrSessionNotFound = errors.New("session: not found")
	ErrTokenGeneration = errors.New("session: token generation failed")
)
