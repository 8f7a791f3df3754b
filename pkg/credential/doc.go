// Package credential owns password hashing and verification for the
// authentication core.
//
// Exactly one canonical algorithm (bcrypt) is used for new credentials. Two
// legacy scrypt formats found in migrated production data can still be read
// and verified; the format is recorded as an explicit tag at parse time
// instead of being guessed by trial-and-error on every login. Upgrade
// provides the migration path: after a successful legacy verification the
// password is re-hashed with the canonical algorithm and the caller persists
// the replacement.
//
// Verify never returns an error. A malformed or unrecognized stored value is
// an authentication failure, indistinguishable from a wrong password, and all
// digest comparisons are constant-time.
package credential
