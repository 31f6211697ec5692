package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"rentstock-backend/internal/domain"
)

// UnlockGuard checks the override password that opens confirmed periods and
// locked period-managed movements. Only its bcrypt hash is configured.
type UnlockGuard struct {
	hash []byte
}

func NewUnlockGuard(hash string) *UnlockGuard {
	return &UnlockGuard{hash: []byte(hash)}
}

func (g *UnlockGuard) Verify(password string) error {
	if len(g.hash) == 0 {
		return domain.ErrUnlockNotConfigured
	}
	err := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidUnlockPassword
	}
	return err
}

// HashPassword produces the value to put in security.unlock_password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
