package credential

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// Algo identifies the hashing algorithm a stored credential was produced with.
type Algo string

const (
	// AlgoBcrypt is the canonical algorithm for all new credentials.
	AlgoBcrypt Algo = "bcrypt"

	// AlgoScryptDot is a legacy format: "<hex digest>.<hex salt>".
	AlgoScryptDot Algo = "scrypt-dot"

	// AlgoScryptColon is a legacy format: "<hex salt>:<hex digest>".
	AlgoScryptColon Algo = "scrypt-colon"

	// AlgoUnknown marks a stored value no supported format could be detected for.
	// Verification against an unknown credential always fails.
	AlgoUnknown Algo = "unknown"
)

// Legacy scrypt parameters matching the hashes found in production data.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
)

const tagSeparator = "$v1$"

// Credential is a password hash together with the algorithm tag that produced it.
// The plaintext password is never stored.
type Credential struct {
	Algo    Algo
	Encoded string
}

// IsCanonical reports whether the credential uses the current canonical algorithm.
// Non-canonical credentials should be upgraded on the next successful verification.
func (c Credential) IsCanonical() bool {
	return c.Algo == AlgoBcrypt
}

// String returns the tagged storage form "algo$v1$encoded".
func (c Credential) String() string {
	return string(c.Algo) + tagSeparator + c.Encoded
}

// Parse reconstructs a Credential from its stored form. Values written by Hash
// carry an explicit algorithm tag; untagged values predate tagging and get
// their format detected once here, not re-guessed on every verification.
func Parse(stored string) Credential {
	if algo, encoded, ok := strings.Cut(stored, tagSeparator); ok {
		switch Algo(algo) {
		case AlgoBcrypt, AlgoScryptDot, AlgoScryptColon:
			return Credential{Algo: Algo(algo), Encoded: encoded}
		}
		return Credential{Algo: AlgoUnknown, Encoded: encoded}
	}
	return Credential{Algo: detectLegacyFormat(stored), Encoded: stored}
}

// detectLegacyFormat classifies an untagged stored hash.
func detectLegacyFormat(stored string) Algo {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return AlgoBcrypt
	}
	if digest, salt, ok := strings.Cut(stored, "."); ok && isHex(digest) && isHex(salt) {
		return AlgoScryptDot
	}
	if salt, digest, ok := strings.Cut(stored, ":"); ok && isHex(salt) && isHex(digest) {
		return AlgoScryptColon
	}
	return AlgoUnknown
}

// Hash produces a canonical credential with a per-call random salt.
// Empty passwords are rejected; length policy beyond that is the caller's concern.
func Hash(password string) (Credential, error) {
	if password == "" {
		return Credential{}, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, err
	}

	return Credential{Algo: AlgoBcrypt, Encoded: string(hash)}, nil
}

// Verify reports whether the password matches the stored credential.
// A malformed credential is an authentication failure, never an error: callers
// treat any false as "invalid credentials" without distinguishing the cause.
func Verify(password string, c Credential) bool {
	if password == "" || c.Encoded == "" {
		return false
	}

	switch c.Algo {
	case AlgoBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(c.Encoded), []byte(password)) == nil
	case AlgoScryptDot:
		digest, salt, ok := strings.Cut(c.Encoded, ".")
		if !ok {
			return false
		}
		return verifyScrypt(password, salt, digest)
	case AlgoScryptColon:
		salt, digest, ok := strings.Cut(c.Encoded, ":")
		if !ok {
			return false
		}
		return verifyScrypt(password, salt, digest)
	default:
		return false
	}
}

// Upgrade re-hashes a password with the canonical algorithm after it has been
// verified against a legacy credential. The caller persists the result,
// replacing the legacy hash. Upgrading an already-canonical credential is
// rejected so call sites cannot silently churn bcrypt hashes.
func Upgrade(password string, legacy Credential) (Credential, error) {
	if legacy.IsCanonical() {
		return Credential{}, ErrAlreadyCanonical
	}
	if !Verify(password, legacy) {
		return Credential{}, ErrVerificationFailed
	}
	return Hash(password)
}

// verifyScrypt derives a key from the password with the legacy parameters and
// compares it against the stored digest in constant time. The full derivation
// always runs before comparison, so timing does not reveal where a mismatch
// occurred.
func verifyScrypt(password, saltHex, digestHex string) bool {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(derived, expected) == 1
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
