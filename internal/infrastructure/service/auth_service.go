package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTH
// ══════════════════════════════════════════════════════════════════════════════

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("service: invalid credentials")

// bcryptCost balances hashing time against login latency on the admin API.
const bcryptCost = 12

// AuthService verifies credentials for the administrative HTTP endpoints
// (report export, ledger restore). Student-facing endpoints are read-only
// and unauthenticated.
type AuthService struct {
	adminUser string
	adminHash []byte
}

// NewAuthService creates an auth service from a username and a bcrypt hash.
func NewAuthService(adminUser, adminPasswordHash string) *AuthService {
	return &AuthService{
		adminUser: adminUser,
		adminHash: []byte(adminPasswordHash),
	}
}

// HashPassword produces a bcrypt hash for storing in configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("service: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks a username/password pair. The username comparison is
// constant-time so probing cannot distinguish a wrong user from a wrong
// password.
func (a *AuthService) Verify(username, password string) error {
	userMatch := subtle.ConstantTimeCompare([]byte(a.adminUser), []byte(username)) == 1

	err := bcrypt.CompareHashAndPassword(a.adminHash, []byte(password))
	if err != nil || !userMatch {
		return ErrInvalidCredentials
	}

	return nil
}

// Enabled reports whether admin auth is configured at all.
func (a *AuthService) Enabled() bool {
	return a.adminUser != "" && len(a.adminHash) > 0
}
