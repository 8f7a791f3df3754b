package sanitizer

import (
	"regexp"
	"strings"
)

var dotRegex = regexp.MustCompile(`\.{2,}`)

// NormalizeEmail lowercases and trims an email address so it can be used as
// a canonical lookup handle. Consecutive dots in the local part are
// consolidated and leading or trailing dots removed.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := dotRegex.ReplaceAllString(parts[0], ".")
	local = strings.Trim(local, ".")

	return local + "@" + parts[1]
}

// TrimString collapses surrounding whitespace on free-form input fields.
func TrimString(s string) string {
	return strings.TrimSpace(s)
}
