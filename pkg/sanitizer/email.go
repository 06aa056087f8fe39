package sanitizer

import (
	"regexp"
	"strings"
)

var dotRegex = regexp.MustCompile(`\.{2,}`)

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness checks always operate on the same canonical form. Consecutive
// dots in the local part are consolidated; invalid shapes are returned as-is
// so validation can reject them with a proper message.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := parts[0]
	domain := parts[1]

	local = dotRegex.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")

	return local + "@" + domain
}

// NormalizeName collapses surrounding whitespace in a display name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
