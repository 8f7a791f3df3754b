package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

// DefaultTokenTTL is the fixed lifetime of every issued bearer token.
// Tokens are stateless and unrevocable before expiry, so this bounds the
// exposure window after a password or privilege change.
const DefaultTokenTTL = 7 * 24 * time.Hour

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// AccountClaims is the self-contained claim set carried by a bearer token.
// It is a snapshot of non-credential account fields at issuance time.
type AccountClaims struct {
	AccountID int64  `json:"uid"`
	Email     string `json:"email"`
	Admin     bool   `json:"adm,omitempty"`
	Premium   bool   `json:"prm,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Valid checks the temporal claims against the current time.
func (c AccountClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrTokenExpired
	}
	return nil
}

// Issuer mints and verifies bearer tokens with HMAC-SHA256. The signing
// secret is process-wide configuration loaded once at startup and must be
// identical across every instance serving the same deployment; there is
// deliberately no fallback to a generated per-process value.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL overrides the token lifetime. Intended for tests; production
// deployments keep DefaultTokenTTL.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// New creates an Issuer with the provided signing secret.
// An empty secret is a startup error, not a degradable condition.
func New(signingKey string, opts ...Option) (*Issuer, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}

	i := &Issuer{
		signingKey: []byte(signingKey),
		ttl:        DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints a signed token for the given account snapshot.
// Expiry is always issuance time plus the fixed TTL.
func (i *Issuer) Issue(accountID int64, email string, admin, premium bool) (string, error) {
	now := time.Now()
	claims := AccountClaims{
		AccountID: accountID,
		Email:     email,
		Admin:     admin,
		Premium:   premium,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(i.ttl).Unix(),
	}
	return i.sign(claims)
}

// Refresh re-issues a token with the same identity claims and a fresh expiry.
// Sliding expiration is a convenience for long-lived clients, not a
// correctness requirement.
func (i *Issuer) Refresh(claims AccountClaims) (string, error) {
	return i.Issue(claims.AccountID, claims.Email, claims.Admin, claims.Premium)
}

// Verify checks signature, algorithm, and expiry, returning the decoded
// claims. Failures are typed so the caller can distinguish an expired token
// (prompt re-login) from a forged or garbled one (clear the credential):
// ErrTokenMalformed, ErrBadSignature, ErrTokenExpired.
func (i *Issuer) Verify(tokenString string) (AccountClaims, error) {
	var claims AccountClaims

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return claims, ErrTokenMalformed
	}

	// Signature is checked before any payload decoding so unauthenticated
	// input never reaches the JSON parser.
	payload := parts[0] + "." + parts[1]
	expected := i.signature(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return claims, ErrBadSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return claims, ErrTokenMalformed
	}
	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return claims, ErrTokenMalformed
	}
	// Pin the algorithm to prevent confusion attacks.
	if h.Algorithm != headerAlgorithm {
		return claims, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return claims, ErrTokenMalformed
	}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return claims, ErrTokenMalformed
	}

	if err := claims.Valid(); err != nil {
		return claims, err
	}

	return claims, nil
}

func (i *Issuer) sign(claims AccountClaims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + i.signature(payload), nil
}

// signature computes the base64url-encoded HMAC-SHA256 of the payload.
func (i *Issuer) signature(payload string) string {
	h := hmac.New(sha256.New, i.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes without padding, as required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
