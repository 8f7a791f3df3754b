package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vianajose7/faaxis/pkg/credential"
	"github.com/vianajose7/faaxis/pkg/pg"
)

// PGStorage is the PostgreSQL-backed Storage using a pgx connection pool.
type PGStorage struct {
	pool *pgxpool.Pool
}

func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const accountColumns = `id, email, email_verified, is_admin, premium, credential,
	totp_enabled, totp_secret, recovery_codes, created_at, updated_at`

func (s *PGStorage) scanAccount(row interface{ Scan(dest ...any) error }) (*Account, error) {
	var acct Account
	var stored string
	err := row.Scan(
		&acct.ID, &acct.Email, &acct.EmailVerified, &acct.IsAdmin, &acct.Premium,
		&stored, &acct.TOTPEnabled, &acct.TOTPSecretEnc, &acct.RecoveryCodeHashes,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account: scan: %w", err)
	}
	acct.Credential = credential.Parse(stored)
	return &acct, nil
}

func (s *PGStorage) CreateAccount(ctx context.Context, acct *Account) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, email_verified, is_admin, premium, credential, totp_enabled, totp_secret, recovery_codes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		acct.Email, acct.EmailVerified, acct.IsAdmin, acct.Premium,
		acct.Credential.String(), acct.TOTPEnabled, acct.TOTPSecretEnc, acct.RecoveryCodeHashes,
	).Scan(&acct.ID, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("account: create: %w", err)
	}
	return nil
}

func (s *PGStorage) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return s.scanAccount(row)
}

func (s *PGStorage) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return s.scanAccount(row)
}

func (s *PGStorage) UpdateCredential(ctx context.Context, id int64, cred credential.Credential) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET credential = $2, updated_at = now() WHERE id = $1`,
		id, cred.String())
	if err != nil {
		return fmt.Errorf("account: update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGStorage) SetEmailVerified(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET email_verified = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("account: set email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGStorage) UpdateTOTP(ctx context.Context, id int64, enabled bool, secretEnc string, recoveryHashes []string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET totp_enabled = $2, totp_secret = $3, recovery_codes = $4, updated_at = now()
		WHERE id = $1`,
		id, enabled, secretEnc, recoveryHashes)
	if err != nil {
		return fmt.Errorf("account: update totp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGStorage) ConsumeRecoveryCode(ctx context.Context, id int64, hash string) error {
	// array_remove only fires when the hash exists; the WHERE clause makes a
	// second spend of the same code report invalid instead of a no-op.
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET recovery_codes = array_remove(recovery_codes, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(recovery_codes)`,
		id, hash)
	if err != nil {
		return fmt.Errorf("account: consume recovery code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecoveryCodeInvalid
	}
	return nil
}

func (s *PGStorage) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("account: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
