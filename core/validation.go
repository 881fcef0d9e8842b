package core

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail is applied before every lookup and write so that the
// unique index sees one spelling per address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces at least 8 characters with one ASCII digit,
// one lowercase and one uppercase letter.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var hasDigit, hasLower, hasUpper bool
	for i := 0; i < len(password); i++ {
		switch c := password[i]; {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		}
	}

	if !hasDigit || !hasLower || !hasUpper {
		return ErrWeakPassword
	}
	return nil
}
