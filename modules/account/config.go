package account

import "time"

// Config holds account module configuration. VerificationSecret signs email
// verification link tokens; TOTPEncryptionKey must be exactly 32 bytes when
// TOTP enrollment is offered.
type Config struct {
	VerificationSecret string        `env:"VERIFICATION_TOKEN_SECRET,required"`
	VerificationTTL    time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	VerificationURL    string        `env:"VERIFICATION_BASE_URL" envDefault:"http://localhost:8080/auth/verify"`

	TOTPEncryptionKey string `env:"TOTP_ENCRYPTION_KEY"`
	TOTPIssuer        string `env:"TOTP_ISSUER" envDefault:"Faaxis"`
}
