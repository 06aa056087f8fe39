package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	letterRegex = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex  = regexp.MustCompile(`[0-9]`)
)

// weakSubstrings are patterns that disqualify a password outright when they
// appear anywhere in it, case-insensitive. Intentionally short: this is
// advisory business policy, not a breach-corpus check.
var weakSubstrings = []string{
	"password",
	"12345",
	"qwerty",
	"admin",
	"letmein",
}

// PasswordPolicy configures the strength requirements enforced by
// StrongPassword. The zero value is not usable; call DefaultPasswordPolicy.
type PasswordPolicy struct {
	MinLength     int
	MaxLength     int
	RequireLetter bool
	RequireDigit  bool
}

// DefaultPasswordPolicy returns the standard policy: 8-128 characters with
// at least one letter and one digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		MaxLength:     128,
		RequireLetter: true,
		RequireDigit:  true,
	}
}

// StrongPassword validates length and character-class requirements.
func StrongPassword(field, value string, policy PasswordPolicy) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < policy.MinLength || len(value) > policy.MaxLength {
				return false
			}
			if policy.RequireLetter && !letterRegex.MatchString(value) {
				return false
			}
			if policy.RequireDigit && !digitRegex.MatchString(value) {
				return false
			}
			return true
		},
		Error: ValidationError{
			Field: field,
			Message: fmt.Sprintf("must be %d-%d characters with at least one letter and one digit",
				policy.MinLength, policy.MaxLength),
		},
	}
}

// NotWeakPassword rejects passwords containing any deny-listed substring.
func NotWeakPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			lower := strings.ToLower(value)
			for _, pattern := range weakSubstrings {
				if strings.Contains(lower, pattern) {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:   field,
			Message: "contains a common weak pattern, please choose a different one",
		},
	}
}
