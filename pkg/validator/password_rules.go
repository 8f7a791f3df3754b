package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uppercaseRegex   = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex       = regexp.MustCompile(`[0-9]`)
	specialCharRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)

	// Frequently compromised passwords rejected regardless of composition.
	commonPasswords = map[string]bool{
		"password":    true,
		"password1":   true,
		"password123": true,
		"passw0rd":    true,
		"123456":      true,
		"12345678":    true,
		"123456789":   true,
		"1234567890":  true,
		"qwerty":      true,
		"qwerty123":   true,
		"qwertyuiop":  true,
		"abc123":      true,
		"abcd1234":    true,
		"letmein":     true,
		"welcome":     true,
		"welcome1":    true,
		"admin":       true,
		"admin123":    true,
		"iloveyou":    true,
		"trustno1":    true,
		"monkey":      true,
		"dragon":      true,
		"sunshine":    true,
		"master":      true,
		"secret":      true,
		"1q2w3e4r":    true,
		"1qaz2wsx":    true,
		"zaq12wsx":    true,
	}
)

// PasswordStrengthConfig defines composition requirements for passwords.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int
}

// DefaultPasswordStrength returns the default policy: 8-128 characters drawn
// from at least three character classes.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:      8,
		MaxLength:      128,
		MinCharClasses: 3,
	}
}

// StrongPassword validates password length, character class diversity, and
// rejects well-known compromised passwords.
func StrongPassword(field, value string, config PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < config.MinLength || len(value) > config.MaxLength {
				return false
			}
			if commonPasswords[strings.ToLower(value)] {
				return false
			}

			charClasses := 0
			for _, re := range []*regexp.Regexp{uppercaseRegex, lowercaseRegex, digitRegex, specialCharRegex} {
				if re.MatchString(value) {
					charClasses++
				}
			}
			return charClasses >= config.MinCharClasses
		},
		Error: ValidationError{
			Field: field,
			Message: fmt.Sprintf("password must be %d-%d characters with at least %d character types",
				config.MinLength, config.MaxLength, config.MinCharClasses),
		},
	}
}
