// Package auth provides credential verification and JWT token management
// for the staff admin surface.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the cost the seeded accounts were hashed with.
const BcryptCost = 12

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// HashPassword returns a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
// Constant-time within bcrypt; returns false on any mismatch or malformed hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
