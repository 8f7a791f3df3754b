package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/modules/auth"
	"github.com/vianajose7/faaxis/pkg/credential"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/otpcode"
)

// faultySender records the email like captureSender, then fails the send.
type faultySender struct {
	captureSender
	err error
}

func (s *faultySender) SendEmail(ctx context.Context, params mailer.SendEmailParams) error {
	_ = s.captureSender.SendEmail(ctx, params)
	return s.err
}

func TestAdminLoginDeliveryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	cred, err := credential.Hash(testPassword)
	require.NoError(t, err)
	admin := &account.Account{Email: "outage-admin@example.com", IsAdmin: true, Credential: cred}
	require.NoError(t, h.storage.CreateAccount(ctx, admin))

	sender := &faultySender{err: errors.New("smtp connect refused")}
	codes := otpcode.New(otpcode.DefaultConfig())
	gate := auth.NewStepUpGate(h.sessions, codes, h.accounts, auth.WithGateEmailSender(sender))

	// A broken mail backend must not abort the flow: the caller still gets
	// the step-up prompt with a usable handle.
	w := httptest.NewRecorder()
	err = gate.AdminLogin(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), admin.Email, testPassword)
	prompt, ok := auth.IsStepUpRequired(err)
	require.True(t, ok, "expected a step-up prompt, got %v", err)
	require.NotEmpty(t, prompt.Handle)
	assert.False(t, prompt.TOTP)

	// The code issued before the failed send is still redeemable.
	code := sender.lastCode(t, admin.Email)
	w2 := httptest.NewRecorder()
	sess, err := gate.CompleteAdminLogin(ctx, w2, requestWithCookies(w), prompt.Handle, code)
	require.NoError(t, err)
	assert.True(t, sess.AdminStepUp)
}
