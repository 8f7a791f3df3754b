package auth

import "errors"

var (
	ErrUnauthorized    = errors.New("auth: authentication required")
	ErrForbidden       = errors.New("auth: insufficient privileges")
	ErrInvalidCode     = errors.New("auth: invalid or expired code")
	ErrCodeLockedOut   = errors.New("auth: code locked out after too many attempts")
	ErrNoAdminFlow     = errors.New("auth: no admin login in progress")
	ErrNotAdminCapable = errors.New("auth: account is not an administrator")
)

// StepUpRequiredError signals that the caller's password was accepted but a
// second factor must be presented before the privilege is granted. It is a
// prompt, not a denial.
type StepUpRequiredError struct {
	// Handle redeems the emailed one-time code. Empty when the account uses
	// an authenticator app instead.
	Handle string

	// TOTP is true when the second factor is an authenticator code.
	TOTP bool
}

func (e *StepUpRequiredError) Error() string {
	return "auth: step-up verification required"
}

// IsStepUpRequired reports whether err is a step-up prompt and returns it.
func IsStepUpRequired(err error) (*StepUpRequiredError, bool) {
	var stepUp *StepUpRequiredError
	if errors.As(err, &stepUp) {
		return stepUp, true
	}
	return nil, false
}
