// Package totp implements time-based one-time passwords per RFC 6238:
// 30-second steps, HMAC-SHA1, six digits, with a configurable tolerance for
// clock drift between the server and the authenticator app.
//
// The package is stateless; the per-account enable/verify lifecycle lives in
// the account module. Secrets are encrypted with AES-256-GCM before they
// touch storage (EncryptSecret/DecryptSecret), and single-use recovery codes
// are generated at enable time with only their hashes persisted.
package totp
