package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quit-tracker/internal/models"
)

// UserStore is the user persistence the credential service needs.
type UserStore interface {
	CreateUser(username, passwordHash string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
}

// Service resolves credentials to account ids.
type Service struct {
	users UserStore
}

// NewService creates a credential service backed by users.
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Register creates an account and returns its id.
func (s *Service) Register(username, secret string) (int64, error) {
	username = normalizeUsername(username)
	if username == "" || strings.TrimSpace(secret) == "" {
		return 0, ErrInvalidCredentials
	}

	if _, err := s.users.GetUserByUsername(username); err == nil {
		return 0, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := HashPassword(secret)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}
	u, err := s.users.CreateUser(username, hash)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}
	return u.ID, nil
}

// Authenticate returns the account id for a matching username and secret.
func (s *Service) Authenticate(username, secret string) (int64, error) {
	u, err := s.Lookup(username, secret)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Lookup is Authenticate returning the whole user.
func (s *Service) Lookup(username, secret string) (*models.User, error) {
	u, err := s.users.GetUserByUsername(normalizeUsername(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !CheckPassword(secret, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
