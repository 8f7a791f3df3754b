// Package otpcode is the one-time-code registry: short-lived, single-use
// six-digit codes keyed by an opaque handle, shared by the login-OTP,
// password-reset, and admin step-up flows.
//
// The package exists to replace what used to be several divergent in-memory
// maps scattered across route files. There is exactly one Registry
// implementation, parameterized by purpose and TTL, with the backing store
// abstracted behind the Store interface (in-process memory or shared Redis)
// so the service can run as more than one process without touching call
// sites.
//
// Correctness properties the stores guarantee:
//
//   - Consume is atomic: of N concurrent calls with the correct code against
//     one handle, exactly one observes OutcomeSuccess.
//   - Issuing a code invalidates any outstanding handle for the same
//     (email, purpose).
//   - The fifth mismatched attempt deletes the entry (OutcomeLockedOut);
//     expired entries are deleted when observed.
//
// The plaintext code leaves the registry only through the Challenge handed
// to the email-delivery collaborator; logs carry the masked form.
package otpcode
