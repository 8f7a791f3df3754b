// Package token creates and verifies compact HMAC-signed payload tokens for
// single-purpose links like email verification. Unlike full JWTs these carry
// no header and use a truncated signature, keeping URLs short.
package token
