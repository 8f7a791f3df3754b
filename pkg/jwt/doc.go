// Package jwt is the bearer-token issuer for the authentication core.
//
// Tokens are HS256 JWTs carrying an AccountClaims snapshot (account id,
// email, admin and premium flags) with a fixed 7-day expiry. Validity is a
// pure function of signature and current time; there is no server-side
// revocation list, so flows that change credentials or privileges must
// additionally destroy sessions (see modules/account) and accept the bounded
// exposure window of outstanding tokens.
//
// Verify returns typed sentinel errors (ErrTokenExpired, ErrBadSignature,
// ErrTokenMalformed) rather than a boolean so the authentication resolver can
// decide between prompting a re-login and clearing a garbled cookie.
package jwt
