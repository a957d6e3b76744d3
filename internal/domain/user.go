package domain

import (
	"errors"
	"strings"
	"time"
)

// DefaultInitialBalance is credited to every account at registration.
const DefaultInitialBalance int64 = 5000

// User is a marketplace account. Balance is whole currency units and only
// changes through the account ledger.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Balance      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds a user with every required field present.
func NewUser(id, email, name, passwordHash string, balance int64) (*User, error) {
	switch {
	case id == "":
		return nil, errors.New("user id required")
	case strings.TrimSpace(email) == "":
		return nil, errors.New("user email required")
	case name == "":
		return nil, errors.New("user name required")
	case passwordHash == "":
		return nil, errors.New("user password hash required")
	case balance < 0:
		return nil, errors.New("user balance must not be negative")
	}
	now := time.Now().UTC()
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
