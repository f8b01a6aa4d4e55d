// Package auth hashes passwords, issues session tokens and resolves
// credentials to account ids.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials means the username/secret pair did not match an account.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserExists means a registration used a taken username.
	ErrUserExists = errors.New("username already taken")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random 64-character hex token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeUsername trims surrounding whitespace; usernames are otherwise case sensitive.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
