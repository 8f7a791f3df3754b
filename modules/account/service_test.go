package account_test

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/scrypt"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/credential"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/token"
	"github.com/vianajose7/faaxis/pkg/totp"
	"github.com/vianajose7/faaxis/pkg/validator"
)

const (
	testPassword = "Tr4ding-Desk!"
	testTOTPKey  = "0123456789abcdef0123456789abcdef"
)

// sessionRecorder records DestroyAllForAccount calls.
type sessionRecorder struct {
	mu        sync.Mutex
	destroyed []int64
}

func (r *sessionRecorder) DestroyAllForAccount(ctx context.Context, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = append(r.destroyed, accountID)
	return nil
}

// captureSender remembers the last email handed to it.
type captureSender struct {
	mu   sync.Mutex
	sent []mailer.SendEmailParams
}

func (c *captureSender) SendEmail(ctx context.Context, params mailer.SendEmailParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, params)
	return nil
}

func (c *captureSender) last() (mailer.SendEmailParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return mailer.SendEmailParams{}, false
	}
	return c.sent[len(c.sent)-1], true
}

func newService(t *testing.T, opts ...account.Option) (*account.Service, *account.MemoryStorage) {
	t.Helper()
	storage := account.NewMemoryStorage()
	svc, err := account.NewService(account.Config{
		VerificationSecret: "verification-secret",
		VerificationTTL:    24 * time.Hour,
		VerificationURL:    "http://localhost:8080/auth/verify",
		TOTPEncryptionKey:  testTOTPKey,
		TOTPIssuer:         "Faaxis",
	}, storage, opts...)
	require.NoError(t, err)
	return svc, storage
}

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("requires verification secret", func(t *testing.T) {
		t.Parallel()
		_, err := account.NewService(account.Config{}, account.NewMemoryStorage())
		require.Error(t, err)
	})

	t.Run("rejects short totp key", func(t *testing.T) {
		t.Parallel()
		_, err := account.NewService(account.Config{
			VerificationSecret: "s",
			TOTPEncryptionKey:  "too-short",
		}, account.NewMemoryStorage())
		require.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates account with canonical credential", func(t *testing.T) {
		t.Parallel()
		svc, storage := newService(t)

		acct, err := svc.Register(ctx, "Advisor@Example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "advisor@example.com", acct.Email)
		assert.False(t, acct.EmailVerified)
		assert.True(t, acct.Credential.IsCanonical())

		stored, err := storage.GetAccountByEmail(ctx, "advisor@example.com")
		require.NoError(t, err)
		assert.Equal(t, acct.ID, stored.ID)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		_, err := svc.Register(ctx, "dup@example.com", testPassword)
		require.NoError(t, err)

		_, err = svc.Register(ctx, "DUP@example.com", testPassword)
		require.ErrorIs(t, err, account.ErrEmailAlreadyRegistered)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		_, err := svc.Register(ctx, "weak@example.com", "short")
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})

	t.Run("sends verification email", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		svc, _ := newService(t, account.WithEmailSender(sender))

		_, err := svc.Register(ctx, "verify-me@example.com", testPassword)
		require.NoError(t, err)

		sent, ok := sender.last()
		require.True(t, ok)
		assert.Equal(t, "verify-me@example.com", sent.SendTo)
		assert.Contains(t, sent.BodyHTML, "token=")
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		registered, err := svc.Register(ctx, "login@example.com", testPassword)
		require.NoError(t, err)

		acct, err := svc.Authenticate(ctx, "login@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, acct.ID)
	})

	t.Run("wrong password and unknown email look identical", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.Register(ctx, "probe@example.com", testPassword)
		require.NoError(t, err)

		_, errWrong := svc.Authenticate(ctx, "probe@example.com", "Wr0ng-Pass!")
		_, errUnknown := svc.Authenticate(ctx, "ghost@example.com", testPassword)
		require.ErrorIs(t, errWrong, account.ErrInvalidCredentials)
		require.ErrorIs(t, errUnknown, account.ErrInvalidCredentials)
	})

	t.Run("legacy credential upgraded on login", func(t *testing.T) {
		t.Parallel()
		svc, storage := newService(t)

		// Seed an account carrying a scrypt-dot credential from the old system.
		salt := []byte("legacy-salt-0123")
		digest, err := scrypt.Key([]byte(testPassword), salt, 16384, 8, 1, 64)
		require.NoError(t, err)
		legacy := credential.Parse(fmt.Sprintf("%s.%s", hex.EncodeToString(digest), hex.EncodeToString(salt)))
		require.Equal(t, credential.AlgoScryptDot, legacy.Algo)

		acct := &account.Account{Email: "legacy@example.com", Credential: legacy}
		require.NoError(t, storage.CreateAccount(ctx, acct))

		authed, err := svc.Authenticate(ctx, "legacy@example.com", testPassword)
		require.NoError(t, err)
		assert.True(t, authed.Credential.IsCanonical())

		// The upgrade was persisted: next login verifies against bcrypt.
		stored, err := storage.GetAccountByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, stored.Credential.IsCanonical())

		_, err = svc.Authenticate(ctx, "legacy@example.com", testPassword)
		require.NoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("destroys all sessions", func(t *testing.T) {
		t.Parallel()
		rec := &sessionRecorder{}
		svc, _ := newService(t, account.WithSessionDestroyer(rec))
		acct, err := svc.Register(ctx, "rotate@example.com", testPassword)
		require.NoError(t, err)

		const newPassword = "N3w-Secret-Pass!"
		require.NoError(t, svc.ChangePassword(ctx, acct.ID, testPassword, newPassword))
		assert.Contains(t, rec.destroyed, acct.ID)

		_, err = svc.Authenticate(ctx, "rotate@example.com", testPassword)
		require.ErrorIs(t, err, account.ErrInvalidCredentials)
		_, err = svc.Authenticate(ctx, "rotate@example.com", newPassword)
		require.NoError(t, err)
	})

	t.Run("requires current password", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "strict@example.com", testPassword)
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, acct.ID, "Wr0ng-Pass!", "N3w-Secret-Pass!")
		require.ErrorIs(t, err, account.ErrInvalidCredentials)
	})
}

func TestResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := &sessionRecorder{}
	svc, _ := newService(t, account.WithSessionDestroyer(rec))
	acct, err := svc.Register(ctx, "reset@example.com", testPassword)
	require.NoError(t, err)

	const newPassword = "Reset-Pass-99!"
	require.NoError(t, svc.ResetPassword(ctx, "reset@example.com", newPassword))
	assert.Contains(t, rec.destroyed, acct.ID)

	_, err = svc.Authenticate(ctx, "reset@example.com", newPassword)
	require.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	extractToken := func(t *testing.T, body string) string {
		t.Helper()
		idx := strings.Index(body, "token=")
		require.GreaterOrEqual(t, idx, 0)
		rest := body[idx+len("token="):]
		end := strings.IndexAny(rest, `"&`)
		require.GreaterOrEqual(t, end, 0)
		return rest[:end]
	}

	t.Run("marks account verified", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		svc, _ := newService(t, account.WithEmailSender(sender))

		acct, err := svc.Register(ctx, "confirm@example.com", testPassword)
		require.NoError(t, err)
		require.False(t, acct.EmailVerified)

		sent, ok := sender.last()
		require.True(t, ok)

		verified, err := svc.VerifyEmail(ctx, extractToken(t, sent.BodyHTML))
		require.NoError(t, err)
		assert.True(t, verified.EmailVerified)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.VerifyEmail(ctx, "not-a-token")
		require.ErrorIs(t, err, account.ErrVerifyTokenInvalid)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "late@example.com", testPassword)
		require.NoError(t, err)

		expired, err := token.Generate(struct {
			AccountID int64  `json:"uid"`
			Email     string `json:"email"`
			Subject   string `json:"sub"`
			ExpireAt  int64  `json:"exp"`
		}{
			AccountID: acct.ID,
			Email:     acct.Email,
			Subject:   "email_verify",
			ExpireAt:  time.Now().Add(-time.Hour).Unix(),
		}, "verification-secret")
		require.NoError(t, err)

		_, err = svc.VerifyEmail(ctx, expired)
		require.ErrorIs(t, err, account.ErrVerifyTokenExpired)
	})

	t.Run("token minted for old address does not verify new one", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "moved@example.com", testPassword)
		require.NoError(t, err)

		stale, err := token.Generate(struct {
			AccountID int64  `json:"uid"`
			Email     string `json:"email"`
			Subject   string `json:"sub"`
			ExpireAt  int64  `json:"exp"`
		}{
			AccountID: acct.ID,
			Email:     "previous@example.com",
			Subject:   "email_verify",
			ExpireAt:  time.Now().Add(time.Hour).Unix(),
		}, "verification-secret")
		require.NoError(t, err)

		_, err = svc.VerifyEmail(ctx, stale)
		require.ErrorIs(t, err, account.ErrVerifyTokenInvalid)
	})
}

func TestTOTPLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("enroll activate verify disable", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "totp@example.com", testPassword)
		require.NoError(t, err)

		enrollment, err := svc.BeginTOTPEnrollment(ctx, acct.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, enrollment.Secret)
		assert.Contains(t, enrollment.URI, "otpauth://totp/")
		assert.True(t, strings.HasPrefix(enrollment.QRDataURI, "data:image/png;base64,"))

		// Verification is refused until activation proves the authenticator.
		code, err := totp.GenerateCode(enrollment.Secret)
		require.NoError(t, err)
		require.ErrorIs(t, svc.VerifyTOTP(ctx, acct.ID, code), account.ErrTOTPNotEnabled)

		recovery, err := svc.ActivateTOTP(ctx, acct.ID, code)
		require.NoError(t, err)
		assert.Len(t, recovery, totp.DefaultRecoveryCodeCount)

		code2, err := totp.GenerateCode(enrollment.Secret)
		require.NoError(t, err)
		require.NoError(t, svc.VerifyTOTP(ctx, acct.ID, code2))

		require.NoError(t, svc.DisableTOTP(ctx, acct.ID, testPassword))
		require.ErrorIs(t, svc.VerifyTOTP(ctx, acct.ID, code2), account.ErrTOTPNotEnabled)
	})

	t.Run("activation requires valid code", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "totp-bad@example.com", testPassword)
		require.NoError(t, err)

		_, err = svc.BeginTOTPEnrollment(ctx, acct.ID)
		require.NoError(t, err)

		_, err = svc.ActivateTOTP(ctx, acct.ID, "000000")
		require.ErrorIs(t, err, account.ErrTOTPCodeInvalid)
	})

	t.Run("recovery code is single use", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "totp-recovery@example.com", testPassword)
		require.NoError(t, err)

		enrollment, err := svc.BeginTOTPEnrollment(ctx, acct.ID)
		require.NoError(t, err)
		code, err := totp.GenerateCode(enrollment.Secret)
		require.NoError(t, err)
		recovery, err := svc.ActivateTOTP(ctx, acct.ID, code)
		require.NoError(t, err)

		require.NoError(t, svc.VerifyTOTP(ctx, acct.ID, recovery[0]))
		require.ErrorIs(t, svc.VerifyTOTP(ctx, acct.ID, recovery[0]), account.ErrTOTPCodeInvalid)
	})

	t.Run("disable requires password", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		acct, err := svc.Register(ctx, "totp-disable@example.com", testPassword)
		require.NoError(t, err)

		enrollment, err := svc.BeginTOTPEnrollment(ctx, acct.ID)
		require.NoError(t, err)
		code, err := totp.GenerateCode(enrollment.Secret)
		require.NoError(t, err)
		_, err = svc.ActivateTOTP(ctx, acct.ID, code)
		require.NoError(t, err)

		require.ErrorIs(t, svc.DisableTOTP(ctx, acct.ID, "Wr0ng-Pass!"), account.ErrInvalidCredentials)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := &sessionRecorder{}
	svc, storage := newService(t, account.WithSessionDestroyer(rec))
	acct, err := svc.Register(ctx, "goodbye@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, acct.ID))
	assert.Contains(t, rec.destroyed, acct.ID)

	_, err = storage.GetAccountByID(ctx, acct.ID)
	require.ErrorIs(t, err, account.ErrAccountNotFound)
}
