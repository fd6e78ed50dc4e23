// Package validate provides centralized input validation and sanitization
// for the GWPL intake API: required-field checks, length constraints,
// email shape, and attachment screening.
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if
// validation fails. Length is counted in runes, not bytes.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}
	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// SanitizeHTML escapes HTML special characters. Submission text ends up
// in staff-facing views and email bodies, so everything user-supplied is
// escaped before storage.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString performs both validation and HTML sanitization.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// RequiredField validates a required free-text field such as a name,
// phone number, or organisation: non-empty after trimming, max 255 chars.
func RequiredField(s string) (string, error) {
	return SanitizeString(s, StringConstraints{
		MinLength:  1,
		MaxLength:  255,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// Summary validates the situation summary on an audit request:
// at least 20 characters of substance, capped at 10000.
func Summary(s string) (string, error) {
	return SanitizeString(s, StringConstraints{
		MinLength:  20,
		MaxLength:  10000,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// OptionalField validates an optional free-text field: may be empty,
// capped at 5000 characters.
func OptionalField(s string) (string, error) {
	return SanitizeString(s, StringConstraints{
		MinLength:  0,
		MaxLength:  5000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}
