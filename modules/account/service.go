package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/vianajose7/faaxis/pkg/credential"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/sanitizer"
	"github.com/vianajose7/faaxis/pkg/token"
	"github.com/vianajose7/faaxis/pkg/totp"
	"github.com/vianajose7/faaxis/pkg/validator"
)

// SubjectEmailVerify tags email verification link tokens.
const SubjectEmailVerify = "email_verify"

// SessionDestroyer revokes every live session for an account. Satisfied by
// session.Manager; password changes and account deletion call it so stolen
// session cookies die with the old password.
type SessionDestroyer interface {
	DestroyAllForAccount(ctx context.Context, accountID int64) error
}

// verifyTokenPayload is the signed payload of an email verification link.
type verifyTokenPayload struct {
	AccountID int64  `json:"uid"`
	Email     string `json:"email"`
	Subject   string `json:"sub"`
	ExpireAt  int64  `json:"exp"`
}

// Service implements the account lifecycle: registration, authentication
// with transparent legacy credential upgrade, password change and reset,
// email verification, and the TOTP enrollment state machine.
type Service struct {
	cfg              Config
	storage          Storage
	sessions         SessionDestroyer
	emailSender      mailer.EmailSender
	log              *slog.Logger
	passwordStrength validator.PasswordStrengthConfig
	now              func() time.Time
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSessionDestroyer(d SessionDestroyer) Option {
	return func(s *Service) { s.sessions = d }
}

func WithEmailSender(sender mailer.EmailSender) Option {
	return func(s *Service) { s.emailSender = sender }
}

func WithPasswordStrength(cfg validator.PasswordStrengthConfig) Option {
	return func(s *Service) { s.passwordStrength = cfg }
}

// NewService creates an account service. TOTPEncryptionKey, when set, must
// be exactly 32 bytes.
func NewService(cfg Config, storage Storage, opts ...Option) (*Service, error) {
	if cfg.VerificationSecret == "" {
		return nil, errors.New("account: verification secret is required")
	}
	if cfg.TOTPEncryptionKey != "" && len(cfg.TOTPEncryptionKey) != totp.KeySize {
		return nil, fmt.Errorf("account: totp encryption key must be %d bytes", totp.KeySize)
	}

	s := &Service{
		cfg:              cfg,
		storage:          storage,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		passwordStrength: validator.DefaultPasswordStrength(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account and sends the verification email. The email is
// normalized before uniqueness is decided so the same mailbox cannot sign up
// twice with case or dot variants.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, s.passwordStrength),
	); err != nil {
		return nil, err
	}

	if _, err := s.storage.GetAccountByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("account: check existing: %w", err)
	}

	cred, err := credential.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("account: hash password: %w", err)
	}

	acct := &Account{
		Email:      email,
		Credential: cred,
	}
	if err := s.storage.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}

	if err := s.sendVerificationEmail(ctx, acct); err != nil {
		// Registration stands; the client can request another email.
		s.log.ErrorContext(ctx, "failed to send verification email",
			logger.AccountID(acct.ID), logger.Error(err), logger.Component("account"))
	}

	s.log.InfoContext(ctx, "account registered",
		logger.AccountID(acct.ID), logger.Component("account"))
	return acct, nil
}

// Authenticate verifies email and password. Any failure is reported as
// ErrInvalidCredentials so responses never reveal whether the email exists.
// A successful login against a legacy credential upgrades it to the
// canonical format in place.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = sanitizer.NormalizeEmail(email)

	acct, err := s.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !credential.Verify(password, acct.Credential) {
		return nil, ErrInvalidCredentials
	}

	if !acct.Credential.IsCanonical() {
		upgraded, err := credential.Upgrade(password, acct.Credential)
		if err == nil {
			err = s.storage.UpdateCredential(ctx, acct.ID, upgraded)
		}
		if err != nil {
			// Login still succeeds; the upgrade retries next time.
			s.log.ErrorContext(ctx, "legacy credential upgrade failed",
				logger.AccountID(acct.ID), logger.Error(err), logger.Component("account"))
		} else {
			acct.Credential = upgraded
			s.log.InfoContext(ctx, "legacy credential upgraded",
				logger.AccountID(acct.ID), logger.Component("account"))
		}
	}

	return acct, nil
}

// ChangePassword updates the password for an authenticated account after
// re-verifying the current one, then revokes every session for the account.
// Outstanding bearer tokens stay valid until their expiry; sessions are the
// revocable half of the credential model.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !credential.Verify(currentPassword, acct.Credential) {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, acct, newPassword)
}

// ResetPassword replaces the password without knowing the old one. Callers
// must have proven control of the mailbox first (one-time code flow).
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = sanitizer.NormalizeEmail(email)

	acct, err := s.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, acct, newPassword)
}

func (s *Service) setPassword(ctx context.Context, acct *Account, newPassword string) error {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.passwordStrength),
	); err != nil {
		return err
	}

	cred, err := credential.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("account: hash password: %w", err)
	}
	if err := s.storage.UpdateCredential(ctx, acct.ID, cred); err != nil {
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.DestroyAllForAccount(ctx, acct.ID); err != nil {
			s.log.ErrorContext(ctx, "failed to destroy sessions after password change",
				logger.AccountID(acct.ID), logger.Error(err), logger.Component("account"))
		}
	}

	s.log.InfoContext(ctx, "password updated",
		logger.AccountID(acct.ID), logger.Component("account"))
	return nil
}

// RequestEmailVerification re-sends the verification email.
func (s *Service) RequestEmailVerification(ctx context.Context, accountID int64) error {
	acct, err := s.storage.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.EmailVerified {
		return nil
	}
	return s.sendVerificationEmail(ctx, acct)
}

// VerifyEmail consumes a verification link token and marks the account
// verified.
func (s *Service) VerifyEmail(ctx context.Context, linkToken string) (*Account, error) {
	payload, err := token.Parse[verifyTokenPayload](linkToken, s.cfg.VerificationSecret)
	if err != nil {
		return nil, ErrVerifyTokenInvalid
	}
	if payload.Subject != SubjectEmailVerify {
		return nil, ErrVerifyTokenInvalid
	}
	if s.now().Unix() > payload.ExpireAt {
		return nil, ErrVerifyTokenExpired
	}

	acct, err := s.storage.GetAccountByID(ctx, payload.AccountID)
	if err != nil {
		return nil, ErrVerifyTokenInvalid
	}
	// A token minted for a previous address must not verify the current one.
	if acct.Email != payload.Email {
		return nil, ErrVerifyTokenInvalid
	}

	if !acct.EmailVerified {
		if err := s.storage.SetEmailVerified(ctx, acct.ID); err != nil {
			return nil, err
		}
		acct.EmailVerified = true
	}
	return acct, nil
}

func (s *Service) sendVerificationEmail(ctx context.Context, acct *Account) error {
	if s.emailSender == nil {
		return nil
	}

	linkToken, err := token.Generate(verifyTokenPayload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Subject:   SubjectEmailVerify,
		ExpireAt:  s.now().Add(s.cfg.VerificationTTL).Unix(),
	}, s.cfg.VerificationSecret)
	if err != nil {
		return fmt.Errorf("account: generate verification token: %w", err)
	}

	link := s.cfg.VerificationURL + "?token=" + url.QueryEscape(linkToken)
	params, err := mailer.VerificationLinkEmail(acct.Email, link)
	if err != nil {
		return err
	}
	return s.emailSender.SendEmail(ctx, params)
}

// GetByID loads an account.
func (s *Service) GetByID(ctx context.Context, id int64) (*Account, error) {
	return s.storage.GetAccountByID(ctx, id)
}

// GetByEmail loads an account by normalized email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.storage.GetAccountByEmail(ctx, sanitizer.NormalizeEmail(email))
}

// DeleteAccount revokes all sessions and removes the account row.
func (s *Service) DeleteAccount(ctx context.Context, accountID int64) error {
	if s.sessions != nil {
		if err := s.sessions.DestroyAllForAccount(ctx, accountID); err != nil {
			return fmt.Errorf("account: destroy sessions: %w", err)
		}
	}
	return s.storage.DeleteAccount(ctx, accountID)
}
