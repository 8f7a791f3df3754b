// Package account owns the account record and its lifecycle: registration
// with email verification, password authentication with transparent upgrade
// of legacy credential formats, password change and reset, TOTP enrollment,
// and deletion.
//
// Authentication failures are uniformly reported as ErrInvalidCredentials so
// the HTTP surface cannot be used to probe which emails are registered.
// Password changes revoke every session for the account through the
// SessionDestroyer; bearer tokens issued earlier remain valid until expiry,
// which is the accepted trade-off of stateless tokens.
//
// Storage has two implementations: PGStorage on pgx for production and
// MemoryStorage for tests and local development.
package account
