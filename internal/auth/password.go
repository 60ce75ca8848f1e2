package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. The lower bound matches the registration form;
// the upper one is bcrypt's input limit.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

var ErrWeakPassword = errors.New("auth: password shorter than 8 characters")

// HashPassword derives the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	if len(password) > maxPasswordLen {
		return "", errors.New("auth: password exceeds bcrypt limit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a login attempt against the stored hash. Every
// failure, including an empty hash on the row, reads as a plain mismatch
// so callers cannot tell which part failed.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrUnauthorized
	}
	return nil
}
