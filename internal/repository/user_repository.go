package repository

import (
	"context"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

type userRepository struct {
	db DBTX
	// lock makes reads take row locks; set for repositories bound to a transaction.
	lock bool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, balance, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, password_hash, balance)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Balance,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapPgError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	if r.lock {
		query += ` FOR UPDATE`
	}
	return r.scanOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.scanOne(ctx, query, email)
}

func (r *userRepository) AdjustBalance(ctx context.Context, id string, delta int64) (int64, error) {
	const query = `
        UPDATE users SET balance = balance + $1, updated_at = NOW()
        WHERE id = $2 AND balance + $1 >= 0
        RETURNING balance`

	var balance int64
	err := r.db.QueryRow(ctx, query, delta, id).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if err = mapPgError(err); err != ErrNotFound {
		return 0, err
	}
	// Distinguish a missing user from a rejected guard.
	if _, err := r.GetByID(ctx, id); err != nil {
		return 0, err
	}
	return 0, ErrConditionFailed
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &user, nil
}
