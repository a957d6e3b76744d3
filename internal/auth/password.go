package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrCredentialMismatch is returned by ComparePassword when the plaintext does
// not match the stored hash.
var ErrCredentialMismatch = errors.New("credential mismatch")

// HashPassword hashes a plaintext password. A cost outside bcrypt's accepted
// range is replaced by bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword verifies plain against hashed. Any error other than
// ErrCredentialMismatch means the stored hash itself is unusable.
func ComparePassword(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrCredentialMismatch
	}
	return err
}
