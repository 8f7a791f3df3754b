package account

import (
	"time"

	"github.com/vianajose7/faaxis/pkg/credential"
)

// Account represents a marketplace account. Advisors and admins share the
// same record; IsAdmin gates the elevated surface and Premium gates paid
// features. The email doubles as the login handle.
type Account struct {
	ID            int64
	Email         string
	EmailVerified bool
	IsAdmin       bool
	Premium       bool

	Credential credential.Credential

	// TOTP state. The secret is stored AES-256-GCM encrypted; it is present
	// but TOTPEnabled false while enrollment is pending activation.
	TOTPEnabled        bool
	TOTPSecretEnc      string
	RecoveryCodeHashes []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
