package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/clientip"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/otpcode"
	"github.com/vianajose7/faaxis/pkg/session"
)

// AccountVerifier is the slice of account.Service the step-up gate needs.
type AccountVerifier interface {
	Authenticate(ctx context.Context, email, password string) (*account.Account, error)
	GetByID(ctx context.Context, id int64) (*account.Account, error)
	VerifyTOTP(ctx context.Context, accountID int64, code string) error
}

// StepUpGate verifies a second factor for admin privilege escalation. A
// satisfied factor sets the session's step-up flag and rotates the session
// id; the grant lives on the session only and dies with it.
type StepUpGate struct {
	sessions    *session.Manager
	codes       *otpcode.Registry
	accounts    AccountVerifier
	emailSender mailer.EmailSender
	log         *slog.Logger
}

// GateOption configures a StepUpGate.
type GateOption func(*StepUpGate)

// WithGateLogger sets the logger.
func WithGateLogger(log *slog.Logger) GateOption {
	return func(g *StepUpGate) { g.log = log }
}

// WithGateEmailSender sets the delivery collaborator for emailed codes.
// Without one, challenges are still issued but nothing is delivered; only
// useful in tests.
func WithGateEmailSender(sender mailer.EmailSender) GateOption {
	return func(g *StepUpGate) { g.emailSender = sender }
}

// NewStepUpGate creates a StepUpGate.
func NewStepUpGate(sessions *session.Manager, codes *otpcode.Registry, accounts AccountVerifier, opts ...GateOption) *StepUpGate {
	g := &StepUpGate{
		sessions: sessions,
		codes:    codes,
		accounts: accounts,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BeginEmailChallenge issues a step-up code for the account and emails it.
// The returned handle redeems the code; the code itself goes only to the
// mailbox. Delivery is fire-and-forget: a send failure is logged but never
// invalidates the issued code or hides the handle from the caller, so the
// client can retry or fall back on an out-of-band channel.
func (g *StepUpGate) BeginEmailChallenge(ctx context.Context, acct *account.Account) (string, error) {
	challenge, err := g.codes.Issue(ctx, acct.Email, otpcode.PurposeAdminStepUp)
	if err != nil {
		return "", err
	}

	if g.emailSender != nil {
		params, err := mailer.AdminStepUpCodeEmail(acct.Email, challenge.Code, time.Until(challenge.ExpiresAt))
		if err != nil {
			g.log.ErrorContext(ctx, "failed to render step-up email",
				logger.Component("auth"), logger.AccountID(acct.ID), logger.Error(err))
		} else if err := g.emailSender.SendEmail(ctx, params); err != nil {
			g.log.ErrorContext(ctx, "failed to send step-up email",
				logger.Component("auth"), logger.AccountID(acct.ID), logger.Error(err))
		}
	}

	g.log.InfoContext(ctx, "step-up challenge issued",
		logger.Component("auth"),
		logger.AccountID(acct.ID),
	)
	return challenge.Handle, nil
}

// SatisfyWithEmailOTP redeems an emailed step-up code for the session's
// account. On success the session is rotated with the step-up flag set and
// the rotated session is returned.
func (g *StepUpGate) SatisfyWithEmailOTP(ctx context.Context, w http.ResponseWriter, r *http.Request, handle, code string) (*session.Session, error) {
	acct, err := g.sessionAccount(ctx, r)
	if err != nil {
		return nil, err
	}

	result, err := g.codes.Consume(ctx, handle, code)
	if err != nil {
		return nil, err
	}
	switch result.Outcome {
	case otpcode.OutcomeSuccess:
	case otpcode.OutcomeLockedOut:
		return nil, ErrCodeLockedOut
	default:
		return nil, ErrInvalidCode
	}

	// A code issued for someone else's mailbox must never elevate this
	// session, even with a stolen handle.
	if result.Purpose != otpcode.PurposeAdminStepUp || result.Email != acct.Email {
		return nil, ErrInvalidCode
	}

	return g.grant(ctx, w, r, acct)
}

// SatisfyWithTOTP verifies an authenticator code (or recovery code) for the
// session's account and elevates the session.
func (g *StepUpGate) SatisfyWithTOTP(ctx context.Context, w http.ResponseWriter, r *http.Request, code string) (*session.Session, error) {
	acct, err := g.sessionAccount(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := g.accounts.VerifyTOTP(ctx, acct.ID, code); err != nil {
		if errors.Is(err, account.ErrTOTPCodeInvalid) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	return g.grant(ctx, w, r, acct)
}

func (g *StepUpGate) grant(ctx context.Context, w http.ResponseWriter, r *http.Request, acct *account.Account) (*session.Session, error) {
	sess, err := g.sessions.GrantAdminStepUp(ctx, w, r)
	if err != nil {
		return nil, err
	}

	g.log.InfoContext(ctx, "admin step-up granted",
		logger.Component("auth"),
		logger.AccountID(acct.ID),
		logger.ClientIP(clientip.FromContext(ctx)),
	)
	return sess, nil
}

// sessionAccount loads the account bound to the request's session. Step-up
// is an escalation of an existing authenticated session, never a login.
func (g *StepUpGate) sessionAccount(ctx context.Context, r *http.Request) (*account.Account, error) {
	sess, err := g.sessions.Get(ctx, r)
	if err != nil || !sess.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	return g.accounts.GetByID(ctx, *sess.AccountID)
}
