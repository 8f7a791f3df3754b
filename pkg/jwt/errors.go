package jwt

import "errors"

var (
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrTokenMalformed          = errors.New("jwt: malformed token")
	ErrBadSignature            = errors.New("jwt: invalid signature")
	ErrTokenExpired            = errors.New("jwt: token is expired")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
)
