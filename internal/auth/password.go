package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the operator password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrOperatorLoginDisabled is returned when no operator password hash is configured.
var ErrOperatorLoginDisabled = errors.New("operator login not configured")

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// OperatorLogin checks password against passwordHash and issues an operator token.
func OperatorLogin(password, passwordHash, secretKey string, ttl time.Duration) (string, error) {
	if passwordHash == "" {
		return "", ErrOperatorLoginDisabled
	}
	if !CheckPasswordHash(password, passwordHash) {
		return "", ErrInvalidCredentials
	}
	return GenerateJWT(OperatorSubject, true, secretKey, ttl)
}
