package otpcode

import (
	"strings"
	"time"
)

// Purpose scopes a code to the flow that issued it. Codes are never valid
// across purposes.
type Purpose string

const (
	PurposeLoginOTP      Purpose = "login_otp"
	PurposePasswordReset Purpose = "password_reset"
	PurposeAdminStepUp   Purpose = "admin_step_up"
)

// CodeLength is the number of digits in every issued code.
const CodeLength = 6

// MaxAttempts is the mismatch budget per handle. The attempt that reaches it
// invalidates the entry regardless of remaining lifetime.
const MaxAttempts = 5

// Challenge is returned to the issuing flow. The code goes to the
// email-delivery collaborator, the handle to the client; nothing else ever
// exposes the plaintext code.
type Challenge struct {
	Handle    string
	Code      string
	Email     string
	Purpose   Purpose
	ExpiresAt time.Time
}

// Entry is the stored representation of an outstanding code.
type Entry struct {
	Handle    string    `json:"handle"`
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	Purpose   Purpose   `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Outcome classifies the result of a consume attempt.
type Outcome string

const (
	// OutcomeSuccess: code matched, entry atomically deleted. At most one
	// caller ever observes this per handle.
	OutcomeSuccess Outcome = "success"

	// OutcomeMismatch: wrong code, attempt recorded, handle still live.
	OutcomeMismatch Outcome = "mismatch"

	// OutcomeLockedOut: the mismatch budget was exhausted and the entry
	// deleted. The client must request a fresh code.
	OutcomeLockedOut Outcome = "locked_out"

	// OutcomeInvalidOrExpired: unknown handle, expired entry, or an entry a
	// concurrent caller already consumed. Indistinguishable on purpose.
	OutcomeInvalidOrExpired Outcome = "invalid_or_expired"
)

// Result carries the outcome of a consume call. Email and Purpose are only
// set on success.
type Result struct {
	Outcome Outcome
	Email   string
	Purpose Purpose
}

// MaskCode renders a code for logging: first two digits visible, rest
// replaced. The plaintext code must never reach a log line.
func MaskCode(code string) string {
	if len(code) <= 2 {
		return strings.Repeat("*", len(code))
	}
	return code[:2] + strings.Repeat("*", len(code)-2)
}
