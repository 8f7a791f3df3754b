package auth

import (
	"context"
	"net/http"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/session"
	"github.com/vianajose7/faaxis/pkg/statemachine"
)

// Admin login is a two-request protocol: password first, second factor
// second. The finite state machine below makes the ordering explicit; the
// only path to the granted state runs through a consumed step-up code, so a
// handler bug cannot skip the second factor.
var (
	stateCredentialsSubmitted = statemachine.StringState("credentials_submitted")
	statePasswordVerified     = statemachine.StringState("password_verified")
	stateStepUpRequired       = statemachine.StringState("step_up_required")
	stateStepUpCodeIssued     = statemachine.StringState("step_up_code_issued")
	stateStepUpConsumed       = statemachine.StringState("step_up_consumed")
	stateAdminGranted         = statemachine.StringState("admin_granted")

	eventPasswordVerified = statemachine.StringEvent("password_verified")
	eventStepUpRequired   = statemachine.StringEvent("step_up_required")
	eventCodeIssued       = statemachine.StringEvent("code_issued")
	eventCodeConsumed     = statemachine.StringEvent("code_consumed")
	eventGrantAdmin       = statemachine.StringEvent("grant_admin")
)

// sessionKeyAdminFlow stores the flow's current state name between the two
// requests. It survives session rotation because rotation copies data.
const sessionKeyAdminFlow = "admin_login_state"

// adminCapable refuses the flow to non-admin accounts at the first gate.
func adminCapable(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	acct, ok := data.(*account.Account)
	return ok && acct.IsAdmin
}

func newAdminFlow(current statemachine.State) *statemachine.StateMachine {
	return statemachine.MustNew(current,
		statemachine.WithTransition(stateCredentialsSubmitted, statePasswordVerified, eventPasswordVerified,
			[]statemachine.Guard{adminCapable}, nil),
		statemachine.WithTransition(statePasswordVerified, stateStepUpRequired, eventStepUpRequired, nil, nil),
		statemachine.WithTransition(stateStepUpRequired, stateStepUpCodeIssued, eventCodeIssued, nil, nil),
		statemachine.WithTransition(stateStepUpCodeIssued, stateStepUpConsumed, eventCodeConsumed, nil, nil),
		statemachine.WithTransition(stateStepUpConsumed, stateAdminGranted, eventGrantAdmin, nil, nil),
	)
}

// AdminLogin runs the first half of the admin flow: verify the password,
// bind the session, issue the second-factor challenge. It always returns an
// error; the success-shaped outcome is *StepUpRequiredError carrying the
// challenge details.
func (g *StepUpGate) AdminLogin(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) error {
	flow := newAdminFlow(stateCredentialsSubmitted)

	acct, err := g.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if err := flow.Fire(ctx, eventPasswordVerified, acct); err != nil {
		// Guard rejected: valid password, but not an admin account.
		return ErrNotAdminCapable
	}
	if err := flow.Fire(ctx, eventStepUpRequired, acct); err != nil {
		return err
	}

	sess, err := g.sessions.Authenticate(ctx, w, r, acct.ID)
	if err != nil {
		return err
	}

	prompt := &StepUpRequiredError{TOTP: acct.TOTPEnabled}
	if !acct.TOTPEnabled {
		handle, err := g.BeginEmailChallenge(ctx, acct)
		if err != nil {
			return err
		}
		prompt.Handle = handle
	}
	if err := flow.Fire(ctx, eventCodeIssued, acct); err != nil {
		return err
	}

	sess.Set(sessionKeyAdminFlow, flow.Current().Name())
	if err := g.sessions.Update(ctx, sess); err != nil {
		return err
	}
	return prompt
}

// CompleteAdminLogin runs the second half: redeem the challenge and elevate
// the session. code is either the emailed code (with its handle) or an
// authenticator code (empty handle). Any failure resets the flow; the caller
// starts over at AdminLogin. The returned session is the rotated, elevated
// one; the request's old session id is already dead.
func (g *StepUpGate) CompleteAdminLogin(ctx context.Context, w http.ResponseWriter, r *http.Request, handle, code string) (*session.Session, error) {
	sess, err := g.sessions.Get(ctx, r)
	if err != nil || !sess.IsAuthenticated() {
		return nil, ErrNoAdminFlow
	}
	state, ok := sess.GetString(sessionKeyAdminFlow)
	if !ok || state != stateStepUpCodeIssued.Name() {
		return nil, ErrNoAdminFlow
	}
	flow := newAdminFlow(stateStepUpCodeIssued)

	if handle != "" {
		sess, err = g.SatisfyWithEmailOTP(ctx, w, r, handle, code)
	} else {
		sess, err = g.SatisfyWithTOTP(ctx, w, r, code)
	}
	if err != nil {
		g.resetAdminFlow(ctx, flow, r)
		return nil, err
	}

	if err := flow.Fire(ctx, eventCodeConsumed, nil); err != nil {
		return nil, err
	}
	if err := flow.Fire(ctx, eventGrantAdmin, nil); err != nil {
		return nil, err
	}

	sess.Delete(sessionKeyAdminFlow)
	if err := g.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// resetAdminFlow returns the machine to its initial state and clears the
// stored marker so a failed attempt cannot be resumed mid-flow.
func (g *StepUpGate) resetAdminFlow(ctx context.Context, flow *statemachine.StateMachine, r *http.Request) {
	flow.Reset()
	if sess, err := g.sessions.Get(ctx, r); err == nil {
		sess.Delete(sessionKeyAdminFlow)
		_ = g.sessions.Update(ctx, sess)
	}
}
