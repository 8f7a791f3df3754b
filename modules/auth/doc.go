// Package auth resolves request identities and gates admin privileges.
//
// The Resolver turns every request into an Identity with a fixed precedence:
// a valid bearer token (Authorization header over the fx_jwt cookie) wins
// over the session cookie, and anything invalid degrades to the next source,
// anonymous at worst. A step-up grant is honored only from the session, so
// revoking sessions revokes elevated access even while bearer tokens remain
// valid.
//
// The StepUpGate verifies the second factor for admin access: an emailed
// one-time code or an authenticator code. Admin login is a two-request flow
// whose ordering is enforced by a finite state machine; the granted state is
// reachable only through a consumed step-up code.
//
// The Handler exposes the whole module as a JSON API on chi.
package auth
