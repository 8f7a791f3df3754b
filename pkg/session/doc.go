// Package session provides server-side session state keyed by an opaque,
// unguessable token delivered in a signed HTTP-only cookie.
//
// Sessions exist independently of bearer tokens: they are the revocable half
// of the credential model. The admin step-up flag in particular lives only
// here, so destroying a session revokes elevated capability immediately even
// though outstanding bearer tokens cannot be recalled.
//
// The Manager rotates the session id on every privilege change (login,
// step-up grant) to prevent fixation, and rotation always clears the
// step-up flag: a second factor must be re-proven after any rotation.
// Backing stores are pluggable; MemoryStore serves single-process
// deployments and tests, RedisStore shares state across processes.
package session
