package credential

import "errors"

var (
	ErrEmptyPassword      = errors.New("credential: empty password")
	ErrAlreadyCanonical   = errors.New("credential: already canonical, nothing to upgrade")
	ErrVerificationFailed = errors.New("credential: verification failed")
)
