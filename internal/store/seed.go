package store

import (
	"errors"
	"fmt"

	"github.com/marcus/academy/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the user's
// stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// EnsureAdmin creates the given admin account if no user with that username
// exists yet. Returns true when a new account was created.
func (s *Store) EnsureAdmin(username, email, password string) (bool, error) {
	if _, err := s.GetUserByUsername(username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	u := &models.User{
		Username:     username,
		Email:        email,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.CreateUser(u); err != nil {
		return false, err
	}
	return true, nil
}
