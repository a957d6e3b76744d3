package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/qa327/ticket-marketplace/internal/repository"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// AccountLedger debits and credits user balances. A balance never drops
// below zero.
type AccountLedger struct {
	users repository.UserRepository
}

// NewAccountLedger binds the ledger to a user repository.
func NewAccountLedger(users repository.UserRepository) *AccountLedger {
	return &AccountLedger{users: users}
}

// BalanceOf returns the current balance.
func (l *AccountLedger) BalanceOf(ctx context.Context, userID string) (int64, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return 0, l.mapErr(err)
	}
	return user.Balance, nil
}

// Debit subtracts amount and returns the new balance.
func (l *AccountLedger) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.NewValidationError("debit amount must not be negative", nil)
	}
	balance, err := l.users.AdjustBalance(ctx, userID, -amount)
	if errors.Is(err, repository.ErrConditionFailed) {
		current, berr := l.BalanceOf(ctx, userID)
		if berr != nil {
			return 0, berr
		}
		return 0, apperrors.NewInsufficientFunds(current, strconv.FormatInt(amount, 10))
	}
	if err != nil {
		return 0, l.mapErr(err)
	}
	return balance, nil
}

// Credit adds amount and returns the new balance.
func (l *AccountLedger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.NewValidationError("credit amount must not be negative", nil)
	}
	balance, err := l.users.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return 0, l.mapErr(err)
	}
	return balance, nil
}

func (l *AccountLedger) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	return storageError(err)
}
