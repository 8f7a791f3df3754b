package account

import (
	"context"

	"github.com/vianajose7/faaxis/pkg/credential"
)

// Storage defines the persistence operations for accounts. Implementations
// return ErrAccountNotFound for missing rows and ErrEmailAlreadyRegistered
// on email uniqueness conflicts.
type Storage interface {
	// CreateAccount persists a new account and assigns its ID.
	CreateAccount(ctx context.Context, acct *Account) error
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)

	UpdateCredential(ctx context.Context, id int64, cred credential.Credential) error
	SetEmailVerified(ctx context.Context, id int64) error

	// UpdateTOTP atomically replaces the whole TOTP state: enabled flag,
	// encrypted secret, and recovery code hashes.
	UpdateTOTP(ctx context.Context, id int64, enabled bool, secretEnc string, recoveryHashes []string) error

	// ConsumeRecoveryCode removes one stored hash. Returns
	// ErrRecoveryCodeInvalid when the hash is not present, so a code can only
	// be spent once.
	ConsumeRecoveryCode(ctx context.Context, id int64, hash string) error

	DeleteAccount(ctx context.Context, id int64) error
}
