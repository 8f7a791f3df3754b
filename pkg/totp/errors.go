package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey    = errors.New("totp: failed to generate secret key")
	ErrInvalidSecret                = errors.New("totp: invalid secret")
	ErrInvalidCode                  = errors.New("totp: invalid code format")
	ErrMissingAccountName           = errors.New("totp: missing account name")
	ErrMissingIssuer                = errors.New("totp: missing issuer")
	ErrFailedToEncryptSecret        = errors.New("totp: failed to encrypt secret")
	ErrFailedToDecryptSecret        = errors.New("totp: failed to decrypt secret")
	ErrCipherTooShort               = errors.New("totp: cipher text too short")
	ErrInvalidEncryptionKeyLength   = errors.New("totp: invalid encryption key length")
	ErrInvalidRecoveryCodeCount     = errors.New("totp: recovery code count must be greater than 0")
	ErrFailedToGenerateRecoveryCode = errors.New("totp: failed to generate recovery code")
)
