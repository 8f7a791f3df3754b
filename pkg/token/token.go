package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidToken     = errors.New("token: invalid format")
	ErrSignatureInvalid = errors.New("token: signature mismatch")
)

// Generate creates a compact signed token: base64url(JSON payload) joined
// with an 8-byte truncated HMAC-SHA256 signature. Suitable for short-lived
// single-purpose tokens such as email verification links; expiry belongs in
// the payload and is the caller's responsibility to check.
func Generate[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	sig := h.Sum(nil)[:8]

	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

// Parse verifies the token signature and decodes the payload. The signature
// is compared in constant time before the payload is trusted.
func Parse[T any](tok string, secret string) (T, error) {
	var payload T

	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return payload, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return payload, ErrInvalidToken
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	expected := h.Sum(nil)[:8]

	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrInvalidToken
	}
	return payload, nil
}
