package account

import "errors"

var (
	ErrAccountNotFound        = errors.New("account: not found")
	ErrEmailAlreadyRegistered = errors.New("account: email already registered")
	ErrInvalidCredentials     = errors.New("account: invalid credentials")
	ErrTOTPAlreadyEnabled     = errors.New("account: totp already enabled")
	ErrTOTPNotEnabled         = errors.New("account: totp not enabled")
	ErrTOTPNotPending         = errors.New("account: no pending totp enrollment")
	ErrTOTPCodeInvalid        = errors.New("account: totp code invalid")
	ErrVerifyTokenInvalid     = errors.New("account: verification token invalid")
	ErrVerifyTokenExpired     = errors.New("account: verification token expired")
	ErrRecoveryCodeInvalid    = errors.New("account: recovery code invalid")
)
