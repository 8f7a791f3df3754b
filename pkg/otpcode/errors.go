package otpcode

import "errors"

var (
	// ErrCodeExpired and friends are exported for callers that translate
	// outcomes into their own error taxonomy.
	ErrCodeExpired   = errors.New("otpcode: code invalid or expired")
	ErrCodeMismatch  = errors.New("otpcode: code mismatch")
	ErrCodeLockedOut = errors.New("otpcode: too many attempts, code invalidated")
)

// Err translates a non-success outcome into its sentinel error.
// OutcomeSuccess yields nil.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeMismatch:
		return ErrCodeMismatch
	case OutcomeLockedOut:
		return ErrCodeLockedOut
	default:
		return ErrCodeExpired
	}
}
