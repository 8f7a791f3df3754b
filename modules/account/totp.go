package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/vianajose7/faaxis/pkg/credential"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/qrcode"
	"github.com/vianajose7/faaxis/pkg/totp"
)

// TOTPEnrollment carries everything the client needs to finish enrollment:
// the shared secret for manual entry and a QR data URI for scanning.
type TOTPEnrollment struct {
	Secret    string
	URI       string
	QRDataURI string
}

// BeginTOTPEnrollment generates a fresh secret and stores it encrypted with
// the enabled flag off. The authenticator is not trusted until ActivateTOTP
// proves the client can produce a valid code. Re-running enrollment replaces
// any pending secret.
func (s *Service) BeginTOTPEnrollment(ctx context.Context, accountID int64) (*TOTPEnrollment, error) {
	if s.cfg.TOTPEncryptionKey == "" {
		return nil, errors.New("account: totp encryption key not configured")
	}

	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("account: generate totp secret: %w", err)
	}

	secretEnc, err := totp.EncryptSecret(secret, []byte(s.cfg.TOTPEncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("account: encrypt totp secret: %w", err)
	}
	if err := s.storage.UpdateTOTP(ctx, accountID, false, secretEnc, nil); err != nil {
		return nil, err
	}

	uri, err := totp.ProvisioningURI(secret, acct.Email, s.cfg.TOTPIssuer)
	if err != nil {
		return nil, fmt.Errorf("account: provisioning uri: %w", err)
	}
	qr, err := qrcode.GenerateDataURI(uri, 0)
	if err != nil {
		return nil, err
	}

	return &TOTPEnrollment{Secret: secret, URI: uri, QRDataURI: qr}, nil
}

// ActivateTOTP flips the enabled flag after one valid code against the
// pending secret and returns the plaintext recovery codes. They are shown
// exactly once; only their digests are stored.
func (s *Service) ActivateTOTP(ctx context.Context, accountID int64, code string) ([]string, error) {
	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}
	if acct.TOTPSecretEnc == "" {
		return nil, ErrTOTPNotPending
	}

	secret, err := totp.DecryptSecret(acct.TOTPSecretEnc, []byte(s.cfg.TOTPEncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("account: decrypt totp secret: %w", err)
	}

	ok, err := totp.Validate(secret, code)
	if err != nil || !ok {
		return nil, ErrTOTPCodeInvalid
	}

	codes, err := totp.GenerateRecoveryCodes(totp.DefaultRecoveryCodeCount)
	if err != nil {
		return nil, fmt.Errorf("account: generate recovery codes: %w", err)
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	if err := s.storage.UpdateTOTP(ctx, accountID, true, acct.TOTPSecretEnc, hashes); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "totp enabled",
		logger.AccountID(accountID), logger.Component("account"))
	return codes, nil
}

// DisableTOTP clears the secret, flag, and recovery codes after the password
// is re-verified. Re-enabling starts over with a new secret.
func (s *Service) DisableTOTP(ctx context.Context, accountID int64, password string) error {
	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !credential.Verify(password, acct.Credential) {
		return ErrInvalidCredentials
	}

	if err := s.storage.UpdateTOTP(ctx, accountID, false, "", nil); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "totp disabled",
		logger.AccountID(accountID), logger.Component("account"))
	return nil
}

// VerifyTOTP checks a code against an enabled authenticator. A failed TOTP
// match falls back to the recovery codes; a matching recovery code is
// consumed and cannot be reused.
func (s *Service) VerifyTOTP(ctx context.Context, accountID int64, code string) error {
	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.TOTPEnabled {
		return ErrTOTPNotEnabled
	}

	secret, err := totp.DecryptSecret(acct.TOTPSecretEnc, []byte(s.cfg.TOTPEncryptionKey))
	if err != nil {
		return fmt.Errorf("account: decrypt totp secret: %w", err)
	}

	if ok, err := totp.Validate(secret, code); err == nil && ok {
		return nil
	}

	for _, hash := range acct.RecoveryCodeHashes {
		if totp.VerifyRecoveryCode(code, hash) {
			if err := s.storage.ConsumeRecoveryCode(ctx, accountID, hash); err != nil {
				return err
			}
			s.log.InfoContext(ctx, "recovery code consumed",
				logger.AccountID(accountID), logger.Component("account"))
			return nil
		}
	}

	return ErrTOTPCodeInvalid
}
