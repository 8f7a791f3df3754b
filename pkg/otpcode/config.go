package otpcode

import "time"

// Config holds per-purpose TTLs for issued codes.
type Config struct {
	// LoginTTL bounds login and admin step-up codes.
	LoginTTL time.Duration `env:"OTP_LOGIN_TTL" envDefault:"15m"`

	// ResetTTL bounds password-reset codes.
	ResetTTL time.Duration `env:"OTP_RESET_TTL" envDefault:"30m"`

	// CleanupInterval for expired entries in the memory store (0 to disable).
	CleanupInterval time.Duration `env:"OTP_CLEANUP_INTERVAL" envDefault:"1m"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		LoginTTL:        15 * time.Minute,
		ResetTTL:        30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// TTL returns the lifetime for codes of the given purpose.
func (c Config) TTL(purpose Purpose) time.Duration {
	if purpose == PurposePasswordReset {
		return c.ResetTTL
	}
	return c.LoginTTL
}
