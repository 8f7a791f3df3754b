package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// Digits in every generated code.
	Digits = 6
	// Period is the RFC 6238 time step in seconds.
	Period = 30
	// DefaultTolerance accepts codes from this many adjacent steps on each
	// side of the current one, absorbing clock drift between the server and
	// the authenticator app.
	DefaultTolerance = 1
)

var (
	secretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")
	codeRegex      = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))
)

// GenerateSecretKey generates a new Base32-encoded 160-bit TOTP secret.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // RFC 4226 recommended secret length
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// GenerateCode produces the code for the current time step. Exposed for
// enrollment self-tests and QR display only; it is never served to another
// account's user.
func GenerateCode(secret string) (string, error) {
	return GenerateCodeAt(secret, time.Now())
}

// GenerateCodeAt produces the code for the time step containing t.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	code := hotp(key, t.Unix()/Period, Digits)
	return fmt.Sprintf("%0*d", Digits, code), nil
}

// Validate checks the supplied code against the secret for the current time
// step plus/minus the tolerance. Format errors on the secret are reported;
// a well-formed but wrong code is simply false.
func Validate(secret, code string) (bool, error) {
	return ValidateAt(secret, code, time.Now(), DefaultTolerance)
}

// ValidateAt checks the code for the time step containing t with the given
// tolerance in steps.
func ValidateAt(secret, code string, t time.Time, tolerance int) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCode
	}

	counter := t.Unix() / Period
	for i := -tolerance; i <= tolerance; i++ {
		candidate := hotp(key, counter+int64(i), Digits)
		if fmt.Sprintf("%0*d", Digits, candidate) == code {
			return true, nil
		}
	}
	return false, nil
}

// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps,
// per the Key Uri Format specification.
func ProvisioningURI(secret, accountName, issuer string) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	if accountName == "" {
		return "", ErrMissingAccountName
	}
	if issuer == "" {
		return "", ErrMissingIssuer
	}

	label := url.PathEscape(issuer) + ":" + url.PathEscape(accountName)

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp implements the RFC 4226 algorithm: HMAC-SHA1 over the big-endian
// counter, dynamic truncation, reduction to the desired digit count.
func hotp(key []byte, counter int64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]) << 16) |
		(int(sum[offset+2]) << 8) |
		int(sum[offset+3])

	return code % int(math.Pow10(digits))
}
